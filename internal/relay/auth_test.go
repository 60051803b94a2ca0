package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveCredential(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		header string
		want   string
	}{
		{"param wins over header", Params{"token": "p"}, "Bearer h", "p"},
		{"bearer header", Params{}, "Bearer secret", "secret"},
		{"bearer case-insensitive", Params{}, "bearer secret", "secret"},
		{"non-bearer header verbatim", Params{}, "raw-token", "raw-token"},
		{"three-part header verbatim", Params{}, "Bearer a b", "Bearer a b"},
		{"nothing", Params{}, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveCredential(tc.params, tc.header))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	require.NoError(t, Authenticate("s3cret", "s3cret"))

	err := Authenticate("wrong", "s3cret")
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Equal(t, 403, StatusOf(err))

	// unconfigured server secret is a config error, not an auth pass
	err = Authenticate("", "")
	require.ErrorIs(t, err, ErrNoServerToken)
	require.Equal(t, 500, StatusOf(err))
}
