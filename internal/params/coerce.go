package params

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Coerce applies declared defaults to raw, requires the resulting name set
// to exactly equal the declaration, and converts every value to its
// declared type. A failure returns no partial result.
func (s *Schema) Coerce(raw map[string]string) (map[string]Value, error) {
	var extra []string
	for name := range raw {
		if _, ok := s.byName[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	var missing []string
	filled := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		if v, ok := raw[f.Name]; ok {
			filled[f.Name] = v
			continue
		}
		if f.Default != nil {
			filled[f.Name] = *f.Default
			continue
		}
		missing = append(missing, f.Name)
	}

	if len(missing) > 0 || len(extra) > 0 {
		return nil, errors.Wrapf(ErrSchemaMismatch, "missing [%s], extra [%s]",
			strings.Join(missing, ", "), strings.Join(extra, ", "))
	}

	out := make(map[string]Value, len(s.fields))
	for _, f := range s.fields {
		v, err := f.Type.Coerce(filled[f.Name])
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q", f.Name)
		}
		out[f.Name] = v
	}
	return out, nil
}
