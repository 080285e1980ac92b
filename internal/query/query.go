// Package query evaluates constraint sets against a loaded catalog
// snapshot. Evaluation is conjunctive and lock-free: it sees the state
// the handle last read, which a concurrent writer may have advanced.
package query

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/samcaf/librarian/internal/catalog"
	"github.com/samcaf/librarian/internal/params"
)

// Op selects how a constraint matches.
type Op int

const (
	// OpEq matches entries whose value equals Value.
	OpEq Op = iota
	// OpRange matches numeric values with Min <= v <= Max, inclusive.
	OpRange
	// OpIn matches values equal to any of Values.
	OpIn
)

// Constraint is one condition on a declared parameter. Values are raw
// strings; coercion against the schema happens at evaluation, so a
// constraint fails the same way a registration with that value would.
type Constraint struct {
	Param  string
	Op     Op
	Value  string
	Min    string
	Max    string
	Values []string
}

// Query is a conjunctive constraint set with optional ordering.
type Query struct {
	Constraints []Constraint
	SortBy      string
	Desc        bool
	Limit       int
}

// Run filters the catalog's entries. No constraints means every entry.
// Results keep index insertion order unless SortBy names a declared
// parameter; the sort is stable, so equal values keep insertion order.
// Limit <= 0 means no limit.
func Run(c *catalog.Catalog, q Query) ([]*catalog.Entry, error) {
	matchers := make([]matcher, 0, len(q.Constraints))
	for _, con := range q.Constraints {
		m, err := compile(c.Schema, con)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	var sortBy string
	if q.SortBy != "" {
		f, err := c.Schema.Lookup(q.SortBy)
		if err != nil {
			return nil, err
		}
		sortBy = f.Name
	}

	var out []*catalog.Entry
	for _, e := range c.Entries() {
		matched := true
		for _, m := range matchers {
			if !m(e) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, e)
		}
	}

	if sortBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			cmp := out[i].Params[sortBy].Compare(out[j].Params[sortBy])
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type matcher func(*catalog.Entry) bool

func compile(schema *params.Schema, con Constraint) (matcher, error) {
	f, err := schema.Lookup(con.Param)
	if err != nil {
		return nil, err
	}
	name := f.Name

	switch con.Op {
	case OpEq:
		want, err := f.Type.Coerce(con.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "constraint on %q", name)
		}
		return func(e *catalog.Entry) bool {
			return e.Params[name].Equal(want)
		}, nil

	case OpRange:
		if f.Type != params.TypeInt && f.Type != params.TypeFloat {
			return nil, errors.Wrapf(params.ErrTypeCoercion, "range constraint on %s parameter %q", f.Type, name)
		}
		lo, err := f.Type.Coerce(con.Min)
		if err != nil {
			return nil, errors.Wrapf(err, "range minimum for %q", name)
		}
		hi, err := f.Type.Coerce(con.Max)
		if err != nil {
			return nil, errors.Wrapf(err, "range maximum for %q", name)
		}
		return func(e *catalog.Entry) bool {
			v := e.Params[name]
			return lo.Compare(v) <= 0 && v.Compare(hi) <= 0
		}, nil

	case OpIn:
		want := make([]params.Value, 0, len(con.Values))
		for _, raw := range con.Values {
			v, err := f.Type.Coerce(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "membership candidate for %q", name)
			}
			want = append(want, v)
		}
		return func(e *catalog.Entry) bool {
			v := e.Params[name]
			for _, w := range want {
				if v.Equal(w) {
					return true
				}
			}
			return false
		}, nil

	default:
		return nil, errors.Newf("unknown constraint op %d", con.Op)
	}
}
