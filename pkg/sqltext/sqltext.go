// Package sqltext carries provider-specific query text as inert data.
//
// Nothing in this module parses or validates the text. Specifications attach a
// Fragment to a predicate leaf so that a provider can translate it, and
// query.FromSQL uses one to define a base data source.
package sqltext

// Fragment is a piece of query text plus its parameters.
// It is a closed set: Raw and Interpolated.
type Fragment interface {
	isFragment()
	// IsZero reports whether the fragment carries no text.
	IsZero() bool
}

// Raw is query text with positional `?` placeholders.
type Raw struct {
	Text string
	Args []any
}

func (Raw) isFragment() {}

// IsZero reports whether the fragment carries no text.
func (r Raw) IsZero() bool { return r.Text == "" }

// Interpolated is query text with embedded `@name` placeholders.
type Interpolated struct {
	Text   string
	Params map[string]any
}

func (Interpolated) isFragment() {}

// IsZero reports whether the fragment carries no text.
func (i Interpolated) IsZero() bool { return i.Text == "" }

// NewRaw creates a raw fragment.
func NewRaw(text string, args ...any) Raw {
	return Raw{Text: text, Args: args}
}

// NewInterpolated creates an interpolated fragment. The params map is copied.
func NewInterpolated(text string, params map[string]any) Interpolated {
	copied := make(map[string]any, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return Interpolated{Text: text, Params: copied}
}

// IsEmpty reports whether f is nil or carries no text.
func IsEmpty(f Fragment) bool {
	return f == nil || f.IsZero()
}
