package domain

// TestField selects the single page attribute an experiment varies.
// The set is closed: each field maps 1:1 to one mutable column on the
// funnel page, and the accessor/mutator pair below is the only mapping.
type TestField string

const (
	TestFieldHeadline    TestField = "headline"
	TestFieldSubline     TestField = "subline"
	TestFieldVSLURL      TestField = "vsl_url"
	TestFieldPassMessage TestField = "pass_message"
)

// TestFields lists every valid test field.
func TestFields() []TestField {
	return []TestField{TestFieldHeadline, TestFieldSubline, TestFieldVSLURL, TestFieldPassMessage}
}

// Valid reports whether f is one of the known test fields.
func (f TestField) Valid() bool {
	switch f {
	case TestFieldHeadline, TestFieldSubline, TestFieldVSLURL, TestFieldPassMessage:
		return true
	}
	return false
}

// Value returns the tested attribute's current value on the page.
func (f TestField) Value(p *FunnelPage) *string {
	switch f {
	case TestFieldHeadline:
		return p.ThankyouHeadline
	case TestFieldSubline:
		return p.ThankyouSubline
	case TestFieldVSLURL:
		return p.VSLURL
	case TestFieldPassMessage:
		return p.PassMessage
	}
	return nil
}

// Apply sets the tested attribute on the page.
func (f TestField) Apply(p *FunnelPage, value *string) {
	switch f {
	case TestFieldHeadline:
		p.ThankyouHeadline = value
	case TestFieldSubline:
		p.ThankyouSubline = value
	case TestFieldVSLURL:
		p.VSLURL = value
	case TestFieldPassMessage:
		p.PassMessage = value
	}
}
