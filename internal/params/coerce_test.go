package params_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcaf/librarian/internal/params"
)

func TestTypeCoerce(t *testing.T) {
	cases := []struct {
		name    string
		typ     params.Type
		raw     string
		want    string
		wantErr bool
	}{
		{name: "int", typ: params.TypeInt, raw: "42", want: "42"},
		{name: "int negative", typ: params.TypeInt, raw: "-7", want: "-7"},
		{name: "int from whole float", typ: params.TypeInt, raw: "42.0", want: "42"},
		{name: "int refuses fraction", typ: params.TypeInt, raw: "42.5", wantErr: true},
		{name: "int refuses word", typ: params.TypeInt, raw: "many", wantErr: true},
		{name: "float", typ: params.TypeFloat, raw: "0.5", want: "0.5"},
		{name: "float from int spelling", typ: params.TypeFloat, raw: "1", want: "1.0"},
		{name: "float keeps exponent", typ: params.TypeFloat, raw: "1e20", want: "1e+20"},
		{name: "float refuses word", typ: params.TypeFloat, raw: "fast", wantErr: true},
		{name: "bool true", typ: params.TypeBool, raw: "true", want: "true"},
		{name: "bool numeric", typ: params.TypeBool, raw: "1", want: "true"},
		{name: "bool refuses word", typ: params.TypeBool, raw: "maybe", wantErr: true},
		{name: "string verbatim", typ: params.TypeString, raw: "two words", want: "two words"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := tc.typ.Coerce(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, params.ErrTypeCoercion)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, v.String())
		})
	}
}

func TestSchemaCoerceExactNameSet(t *testing.T) {
	s, err := params.NewSchema(
		params.Field{Name: "n_samples", Type: params.TypeInt},
		params.Field{Name: "minimum", Type: params.TypeFloat},
	)
	require.NoError(t, err)

	_, err = s.Coerce(map[string]string{"n_samples": "10"})
	require.ErrorIs(t, err, params.ErrSchemaMismatch)
	require.Contains(t, err.Error(), "minimum")

	_, err = s.Coerce(map[string]string{"n_samples": "10", "minimum": "0", "maximum": "1"})
	require.ErrorIs(t, err, params.ErrSchemaMismatch)
	require.Contains(t, err.Error(), "maximum")

	values, err := s.Coerce(map[string]string{"n_samples": "10", "minimum": "0"})
	require.NoError(t, err)
	require.Equal(t, "10", values["n_samples"].String())
	require.Equal(t, "0.0", values["minimum"].String())
}

func TestSchemaCoerceAppliesDefaults(t *testing.T) {
	s, err := params.NewSchema(
		params.Field{Name: "n_samples", Type: params.TypeInt},
		params.Field{Name: "seed", Type: params.TypeInt, Default: strptr("0")},
	)
	require.NoError(t, err)

	values, err := s.Coerce(map[string]string{"n_samples": "10"})
	require.NoError(t, err)
	require.Equal(t, int64(0), values["seed"].I)

	// An explicit value still wins over the default.
	values, err = s.Coerce(map[string]string{"n_samples": "10", "seed": "7"})
	require.NoError(t, err)
	require.Equal(t, int64(7), values["seed"].I)
}

func TestSchemaCoerceReportsField(t *testing.T) {
	s, err := params.NewSchema(params.Field{Name: "minimum", Type: params.TypeFloat})
	require.NoError(t, err)

	_, err = s.Coerce(map[string]string{"minimum": "low"})
	require.ErrorIs(t, err, params.ErrTypeCoercion)
	require.Contains(t, err.Error(), `parameter "minimum"`)
}
