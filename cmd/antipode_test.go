package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quake-cli/internal/apperr"
)

func TestAntipodeCmd(t *testing.T) {
	tests := []struct {
		lon, lat string
		want     string
	}{
		{"-122.5", "37.75", "57.5 -37.75\n"},
		{"10", "20", "-170 -20\n"},
		{"0", "0", "-180 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.lon+","+tt.lat, func(t *testing.T) {
			out, err := runCmd(t, antipodeCmd, tt.lon, tt.lat)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestAntipodeCmd_BadInput(t *testing.T) {
	_, err := runCmd(t, antipodeCmd, "east", "20")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLookup))

	_, err = runCmd(t, antipodeCmd, "10", "95")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLookup))
}

func TestAntipodeCmd_Args(t *testing.T) {
	assert.Error(t, antipodeCmd.Args(antipodeCmd, []string{"10"}))
	assert.NoError(t, antipodeCmd.Args(antipodeCmd, []string{"10", "20"}))
}
