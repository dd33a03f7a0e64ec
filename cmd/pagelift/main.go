package main

import "github.com/pagelift/pagelift/internal/cli"

func main() {
	cli.Execute()
}
