package querycql

import (
	"strings"
)

// Fragment is CQL text together with its bind values.
//
// Invariant: strings.Count(Text, "?") == len(Values), and Values[i] binds
// the i-th placeholder. Quoted identifiers never contain "?"; registration
// and queryir.Validate reject such names.
type Fragment struct {
	Text   string
	Values []any
}

// Empty reports whether the fragment carries no text.
func (f Fragment) Empty() bool {
	return f.Text == ""
}

// Placeholders returns the number of "?" markers in the text.
func (f Fragment) Placeholders() int {
	return strings.Count(f.Text, "?")
}

// fragmentBuilder accumulates (text, values) pairs and renders them once.
// Text and values are always appended together so placeholder order and
// value order cannot drift apart.
type fragmentBuilder struct {
	parts []Fragment
}

// add appends a piece of text carrying the given values.
func (b *fragmentBuilder) add(text string, values ...any) {
	b.parts = append(b.parts, Fragment{Text: text, Values: values})
}

// addFragment appends f unless it is empty.
func (b *fragmentBuilder) addFragment(f Fragment) {
	if f.Empty() {
		return
	}
	b.parts = append(b.parts, f)
}

// join renders all parts separated by sep.
func (b *fragmentBuilder) join(sep string) Fragment {
	if len(b.parts) == 0 {
		return Fragment{}
	}
	texts := make([]string, 0, len(b.parts))
	var values []any
	for _, p := range b.parts {
		texts = append(texts, p.Text)
		values = append(values, p.Values...)
	}
	return Fragment{Text: strings.Join(texts, sep), Values: values}
}

// placeholders returns "?,?,...,?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// quoteIdentifier wraps a column name in double quotes, doubling any
// embedded quote.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
