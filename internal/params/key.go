package params

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	pairSep = " : "
	itemSep = " | "
)

// Key builds the canonical index key for a coerced parameter set:
// "name : value" pairs in declaration order joined by " | ". Equal coerced
// values always produce identical keys; map iteration order never
// participates.
func (s *Schema) Key(values map[string]Value) (string, error) {
	if len(values) > len(s.fields) {
		return "", errors.Wrapf(ErrSchemaMismatch, "%d values for %d declared parameters", len(values), len(s.fields))
	}
	var b strings.Builder
	for i, f := range s.fields {
		v, ok := values[f.Name]
		if !ok {
			return "", errors.Wrapf(ErrSchemaMismatch, "missing %q", f.Name)
		}
		if i > 0 {
			b.WriteString(itemSep)
		}
		b.WriteString(f.Name)
		b.WriteString(pairSep)
		b.WriteString(v.String())
	}
	return b.String(), nil
}

// KeyFromRaw coerces raw values and builds their canonical key.
func (s *Schema) KeyFromRaw(raw map[string]string) (string, error) {
	values, err := s.Coerce(raw)
	if err != nil {
		return "", err
	}
	return s.Key(values)
}

// Render returns the canonical string form of every value, keyed by name.
func Render(values map[string]Value) map[string]string {
	out := make(map[string]string, len(values))
	for name, v := range values {
		out[name] = v.String()
	}
	return out
}
