package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quake-cli/internal/apperr"
)

func TestConnString_SortedKeys(t *testing.T) {
	p := PostgresConfig{
		"user":   "quake",
		"host":   "localhost",
		"dbname": "quakes",
		"port":   "5432",
	}
	got, err := p.ConnString()
	require.NoError(t, err)
	assert.Equal(t, "dbname=quakes host=localhost port=5432 user=quake", got)
}

func TestConnString_Quoting(t *testing.T) {
	p := PostgresConfig{
		"password": `it's a secret`,
		"options":  "",
	}
	got, err := p.ConnString()
	require.NoError(t, err)
	assert.Equal(t, `options='' password='it\'s a secret'`, got)
}

func TestConnString_Empty(t *testing.T) {
	_, err := PostgresConfig(nil).ConnString()
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}
