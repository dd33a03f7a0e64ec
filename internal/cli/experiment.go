package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/experiments"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Manage A/B experiments",
	Long:  `Create, inspect, pause, resume, and resolve experiments on funnel pages.`,
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new experiment",
	Long: `Create a new experiment on a funnel page. The page is cloned into a
published variant that differs only in the tested field.

Examples:
  pagelift experiment create "headline-test" --page pg_123 --field headline --value "You qualified!"`,
	Args: cobra.ExactArgs(1),
	RunE: runExperimentCreate,
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	RunE:  runExperimentList,
}

var experimentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an experiment with its observation counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentShow,
}

var experimentPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause a running experiment",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentPatch(experiments.ActionPause),
}

var experimentResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused experiment",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentPatch(experiments.ActionResume),
}

var experimentDeclareCmd = &cobra.Command{
	Use:   "declare <id>",
	Short: "Declare a winner manually",
	Long: `Declare a winning page manually. If the winner is a variant, its tested
field value is copied onto the control page; all variants are unpublished.

Examples:
  pagelift experiment declare exp_123 --winner pg_456`,
	Args: cobra.ExactArgs(1),
	RunE: runExperimentDeclare,
}

var experimentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an experiment and its variant pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentDelete,
}

var experimentSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest alternative copy for a tested field",
	RunE:  runExperimentSuggest,
}

// Flags
var (
	expUser    string
	expPage    string
	expField   string
	expValue   string
	expLabel   string
	expWinner  string
	expContext string
)

func init() {
	experimentCmd.PersistentFlags().StringVarP(&expUser, "user", "u", "", "Owner user id")
	_ = experimentCmd.MarkPersistentFlagRequired("user")

	experimentCreateCmd.Flags().StringVar(&expPage, "page", "", "Control funnel page id")
	experimentCreateCmd.Flags().StringVar(&expField, "field", "", "Tested field (headline|subline|vsl_url|pass_message)")
	experimentCreateCmd.Flags().StringVar(&expValue, "value", "", "Variant value for the tested field")
	experimentCreateCmd.Flags().StringVar(&expLabel, "label", "", "Variant label (default \"Variant B\")")
	_ = experimentCreateCmd.MarkFlagRequired("page")
	_ = experimentCreateCmd.MarkFlagRequired("field")

	experimentDeclareCmd.Flags().StringVar(&expWinner, "winner", "", "Winning page id")
	_ = experimentDeclareCmd.MarkFlagRequired("winner")

	experimentSuggestCmd.Flags().StringVar(&expPage, "page", "", "Funnel page id")
	experimentSuggestCmd.Flags().StringVar(&expField, "field", "", "Tested field")
	experimentSuggestCmd.Flags().StringVar(&expContext, "context", "", "Optional product context for the model")
	_ = experimentSuggestCmd.MarkFlagRequired("page")
	_ = experimentSuggestCmd.MarkFlagRequired("field")

	experimentCmd.AddCommand(experimentCreateCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentShowCmd)
	experimentCmd.AddCommand(experimentPauseCmd)
	experimentCmd.AddCommand(experimentResumeCmd)
	experimentCmd.AddCommand(experimentDeclareCmd)
	experimentCmd.AddCommand(experimentDeleteCmd)
	experimentCmd.AddCommand(experimentSuggestCmd)
}

func runExperimentCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	params := experiments.CreateParams{
		FunnelPageID: expPage,
		Name:         args[0],
		TestField:    domain.TestField(expField),
	}
	if cmd.Flags().Changed("value") {
		params.VariantValue = &expValue
	}
	if expLabel != "" {
		params.VariantLabel = &expLabel
	}

	result, err := app.Service.Create(ctx, expUser, params)
	if err != nil {
		return err
	}

	fmt.Printf("Created experiment %s with variant page %s\n", result.ExperimentID, result.VariantID)
	return nil
}

func runExperimentList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	list, err := app.Service.List(ctx, expUser)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFIELD\tSTATUS\tCREATED")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.TestField, e.Status, e.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runExperimentShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	detail, err := app.Service.Get(ctx, args[0], expUser)
	if err != nil {
		return err
	}

	e := detail.Experiment
	fmt.Printf("Experiment: %s (%s)\n", e.Name, e.ID)
	fmt.Printf("Field:      %s\n", e.TestField)
	fmt.Printf("Status:     %s\n", e.Status)
	fmt.Printf("Min sample: %d\n", e.MinSampleSize)
	if e.Significance != nil {
		fmt.Printf("p-value:    %.4f\n", *e.Significance)
	}
	if e.WinnerID != nil {
		fmt.Printf("Winner:     %s\n", *e.WinnerID)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tLABEL\tPUBLISHED\tVIEWS\tCOMPLETIONS\tRATE")
	for _, v := range detail.Variants {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%.2f%%\n", v.PageID, v.Label, v.IsPublished, v.Views, v.Completions, v.CompletionRate)
	}
	return w.Flush()
}

func runExperimentPatch(action experiments.PatchAction) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		app, err := NewAppContext(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()

		experiment, err := app.Service.Patch(ctx, args[0], expUser, experiments.PatchParams{Action: action})
		if err != nil {
			return err
		}

		fmt.Printf("Experiment %s is now %s\n", experiment.ID, experiment.Status)
		return nil
	}
}

func runExperimentDeclare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	experiment, err := app.Service.Patch(ctx, args[0], expUser, experiments.PatchParams{
		Action:   experiments.ActionDeclareWinner,
		WinnerID: expWinner,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Experiment %s completed", experiment.ID)
	if experiment.WinnerID != nil {
		fmt.Printf(", winner %s", *experiment.WinnerID)
	}
	fmt.Println()
	return nil
}

func runExperimentDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	if err := app.Service.Delete(ctx, args[0], expUser); err != nil {
		return err
	}

	fmt.Printf("Deleted experiment %s\n", args[0])
	return nil
}

func runExperimentSuggest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(context.Background()) }()

	suggestions, err := app.Service.SuggestVariants(ctx, expUser, experiments.SuggestParams{
		FunnelPageID: expPage,
		TestField:    domain.TestField(expField),
		Context:      expContext,
	})
	if err != nil {
		return err
	}

	for _, s := range suggestions {
		fmt.Printf("%s: %q\n  %s\n", s.Label, s.Value, s.Rationale)
	}
	return nil
}
