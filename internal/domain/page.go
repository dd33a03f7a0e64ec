package domain

import "time"

// DefaultVariantLabel is used when a variant is created without a label.
const DefaultVariantLabel = "Variant B"

// FunnelPage is a funnel page row augmented with experiment metadata.
// The control page itself has IsVariant=false; variant pages are clones
// that differ from their control in exactly one tested field.
type FunnelPage struct {
	ID     string
	UserID string
	Name   string
	Slug   string

	ThankyouHeadline *string
	ThankyouSubline  *string
	VSLURL           *string
	PassMessage      *string

	IsPublished  bool
	IsVariant    bool
	VariantLabel *string
	ExperimentID *string
	CreatedAt    time.Time
}

// CloneForVariant copies the explicit allow-list of content fields into a
// new published variant page, overriding only the tested field. The slug
// gets a uniqueness token instead of relying on insert retries. Everything
// outside the allow-list stays zero so control and variant remain
// comparable for the duration of the experiment.
func (p *FunnelPage) CloneForVariant(id, experimentID, label, slugToken string, field TestField, value *string, now time.Time) *FunnelPage {
	variant := &FunnelPage{
		ID:     id,
		UserID: p.UserID,
		Name:   p.Name,
		Slug:   p.Slug + "-variant-" + slugToken,

		ThankyouHeadline: p.ThankyouHeadline,
		ThankyouSubline:  p.ThankyouSubline,
		VSLURL:           p.VSLURL,
		PassMessage:      p.PassMessage,

		IsPublished:  true,
		IsVariant:    true,
		VariantLabel: &label,
		ExperimentID: &experimentID,
		CreatedAt:    now,
	}
	field.Apply(variant, value)
	return variant
}
