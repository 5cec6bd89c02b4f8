package config

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// PostgresConfig is the postgresql section: libpq keywords (host, port,
// dbname, user, password, sslmode, ...) passed through unchanged.
type PostgresConfig map[string]string

// ConnString renders the section as a libpq keyword/value string with keys
// in sorted order. An empty section is a configuration error.
func (p PostgresConfig) ConnString() (string, error) {
	if len(p) == 0 {
		return "", apperr.Configuration(eris.New("config: section postgresql not found"))
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteValue(p[k]))
	}
	return strings.Join(parts, " "), nil
}

// quoteValue applies libpq quoting: values that are empty or contain
// whitespace, quotes or backslashes are single-quoted with escapes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
