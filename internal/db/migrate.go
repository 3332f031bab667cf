// Package db opens the service databases and applies embedded migrations.
//
// Migrations live under migrations/<engine>/ and follow the pattern
//
//	0001_name.up.sql
//
// Each version is applied once and recorded in schema_migrations.
package db

import (
	"embed"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

type migration struct {
	version int
	name    string
	file    string
}

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.up\.sql$`)

// loadMigrations returns the up migrations under dir ordered by version.
func loadMigrations(dir string) ([]migration, error) {
	list, err := stdfs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	var out []migration
	seen := map[int]string{}
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		m := migFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		var ver int
		if _, err := fmt.Sscanf(m[1], "%04d", &ver); err != nil {
			continue
		}
		if prev, dup := seen[ver]; dup {
			return nil, fmt.Errorf("duplicate migration version %04d (%s, %s)", ver, prev, de.Name())
		}
		seen[ver] = de.Name()
		out = append(out, migration{version: ver, name: m[2], file: dir + "/" + de.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (m migration) sql() (string, error) {
	b, err := migrationsFS.ReadFile(m.file)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
