package experiments

import "github.com/pagelift/pagelift/internal/domain"

// VariantReport is the per-page observation read model returned by Get.
type VariantReport struct {
	PageID           string
	IsVariant        bool
	Label            string
	IsPublished      bool
	Views            int64
	Completions      int64
	CompletionRate   float64
	TestedFieldValue *string
}

// ExperimentDetail pairs an experiment with its variant reports, control
// first.
type ExperimentDetail struct {
	Experiment *domain.Experiment
	Variants   []VariantReport
}
