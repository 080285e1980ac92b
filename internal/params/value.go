package params

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Value is a coerced parameter value. Exactly one of the payload fields
// is meaningful, selected by Type.
type Value struct {
	Type Type
	I    int64
	F    float64
	S    string
	B    bool
}

// Coerce converts a raw string into a typed value.
func (t Type) Coerce(raw string) (Value, error) {
	switch t {
	case TypeInt:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Value{Type: TypeInt, I: i}, nil
		}
		// Accept float spellings of whole numbers ("3.0"), refuse the rest.
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
			f < math.MinInt64 || f >= math.MaxInt64 {
			return Value{}, errors.Wrapf(ErrTypeCoercion, "%q as int", raw)
		}
		return Value{Type: TypeInt, I: int64(f)}, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, errors.Wrapf(ErrTypeCoercion, "%q as float", raw)
		}
		return Value{Type: TypeFloat, F: f}, nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, errors.Wrapf(ErrTypeCoercion, "%q as bool", raw)
		}
		return Value{Type: TypeBool, B: b}, nil
	case TypeString:
		return Value{Type: TypeString, S: raw}, nil
	default:
		return Value{}, errors.Wrapf(ErrUnknownType, "%q", string(t))
	}
}

// String renders the canonical form used in keys and sidecars. Floats
// render with an explicit fraction, so an int-spelled input and its float
// spelling produce the same text ("1" and "1.0" both render "1.0").
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.I, 10)
	case TypeFloat:
		return formatFloat(v.F)
	case TypeBool:
		return strconv.FormatBool(v.B)
	default:
		return v.S
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// Equal reports whether two values of the same type are equal.
func (v Value) Equal(o Value) bool { return v.Compare(o) == 0 }

// Compare orders two values of the same type. Bools order false before
// true; strings order lexically.
func (v Value) Compare(o Value) int {
	switch v.Type {
	case TypeInt:
		switch {
		case v.I < o.I:
			return -1
		case v.I > o.I:
			return 1
		}
		return 0
	case TypeFloat:
		switch {
		case v.F < o.F:
			return -1
		case v.F > o.F:
			return 1
		}
		return 0
	case TypeBool:
		switch {
		case !v.B && o.B:
			return -1
		case v.B && !o.B:
			return 1
		}
		return 0
	default:
		return strings.Compare(v.S, o.S)
	}
}
