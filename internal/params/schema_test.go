package params_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcaf/librarian/internal/params"
)

func strptr(s string) *string { return &s }

func TestNewSchemaValidation(t *testing.T) {
	cases := []struct {
		name    string
		fields  []params.Field
		wantErr string
	}{
		{
			name: "valid",
			fields: []params.Field{
				{Name: "n_samples", Type: params.TypeInt},
				{Name: "minimum", Type: params.TypeFloat},
			},
		},
		{
			name:    "empty name",
			fields:  []params.Field{{Name: "", Type: params.TypeInt}},
			wantErr: "must not be empty",
		},
		{
			name:    "duplicate name",
			fields:  []params.Field{{Name: "n", Type: params.TypeInt}, {Name: "n", Type: params.TypeFloat}},
			wantErr: "declared twice",
		},
		{
			name:    "name contains pair separator",
			fields:  []params.Field{{Name: "a : b", Type: params.TypeString}},
			wantErr: "must not contain",
		},
		{
			name:    "name contains item separator",
			fields:  []params.Field{{Name: "a | b", Type: params.TypeString}},
			wantErr: "must not contain",
		},
		{
			name:    "unknown type",
			fields:  []params.Field{{Name: "n", Type: "integer"}},
			wantErr: "unknown parameter type",
		},
		{
			name:    "bad default",
			fields:  []params.Field{{Name: "n", Type: params.TypeInt, Default: strptr("many")}},
			wantErr: "default for parameter",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := params.NewSchema(tc.fields...)
			if tc.wantErr == "" {
				require.NoError(t, err)
				require.Equal(t, len(tc.fields), s.Len())
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSchemaLookup(t *testing.T) {
	s, err := params.NewSchema(params.Field{Name: "n_samples", Type: params.TypeInt})
	require.NoError(t, err)

	f, err := s.Lookup("n_samples")
	require.NoError(t, err)
	require.Equal(t, params.TypeInt, f.Type)

	_, err = s.Lookup("n_sample")
	require.ErrorIs(t, err, params.ErrUnknownParameter)
}

func TestSchemaAdd(t *testing.T) {
	s, err := params.NewSchema(params.Field{Name: "n", Type: params.TypeInt})
	require.NoError(t, err)

	err = s.Add(params.Field{Name: "seed", Type: params.TypeInt})
	require.Error(t, err)
	require.Contains(t, err.Error(), "needs a default")

	require.NoError(t, s.Add(params.Field{Name: "seed", Type: params.TypeInt, Default: strptr("0")}))
	require.Equal(t, []string{"n", "seed"}, s.Names())

	err = s.Add(params.Field{Name: "n", Type: params.TypeInt, Default: strptr("1")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "declared twice")
}
