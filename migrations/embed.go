// Package migrations embeds the SQL schema applied by the postgres
// client when POSTGRES_APPLY_SCHEMA is set.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Files lists migration files in apply order.
func Files() ([]string, error) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
