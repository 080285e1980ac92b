package params

import "github.com/cockroachdb/errors"

var (
	// ErrSchemaMismatch reports a parameter set whose names do not exactly
	// match the schema after defaults are applied.
	ErrSchemaMismatch = errors.New("parameters do not match schema")

	// ErrTypeCoercion reports a value that cannot be coerced to its
	// declared type.
	ErrTypeCoercion = errors.New("value not coercible to declared type")

	// ErrUnknownParameter reports a reference to a parameter name the
	// schema does not declare.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrUnknownType reports an unrecognized parameter type name.
	ErrUnknownType = errors.New("unknown parameter type")
)
