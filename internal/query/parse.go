package query

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Parse turns command-line arguments into constraints. Each argument is
// name=spec, where spec is an exact value ("n=5"), an inclusive range
// ("n=1..10"), or a membership list ("n=1,2,3"). Values containing ".."
// or "," literally need the library API instead.
func Parse(args []string) ([]Constraint, error) {
	out := make([]Constraint, 0, len(args))
	for _, arg := range args {
		name, spec, found := strings.Cut(arg, "=")
		if !found || name == "" {
			return nil, errors.Newf("constraint %q is not of the form name=value", arg)
		}
		if spec == "" {
			return nil, errors.Newf("constraint %q has an empty value", arg)
		}
		switch {
		case strings.Contains(spec, ".."):
			lo, hi, _ := strings.Cut(spec, "..")
			if lo == "" || hi == "" {
				return nil, errors.Newf("range %q needs both bounds, like %s=1..10", arg, name)
			}
			out = append(out, Constraint{Param: name, Op: OpRange, Min: lo, Max: hi})
		case strings.Contains(spec, ","):
			values := strings.Split(spec, ",")
			for _, v := range values {
				if v == "" {
					return nil, errors.Newf("membership list %q has an empty value", arg)
				}
			}
			out = append(out, Constraint{Param: name, Op: OpIn, Values: values})
		default:
			out = append(out, Constraint{Param: name, Op: OpEq, Value: spec})
		}
	}
	return out, nil
}
