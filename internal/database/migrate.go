package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/go-extras/go-kit/must"
	"github.com/rs/zerolog"
	"github.com/stokaro/ptah/dbschema"
	"github.com/stokaro/ptah/migration/migrator"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations is the schema shipped with the binary.
var Migrations = must.Must(fs.Sub(embedded, "migrations"))

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// NewMigrator loads every NNNNNNNNNN_name.{up,down}.sql pair in fsys.
// A version missing its up or down half is an error. conn may be nil when
// only the migration set is needed.
func NewMigrator(conn *dbschema.DatabaseConnection, fsys fs.FS, log zerolog.Logger) (*migrator.Migrator, error) {
	if err := checkPairs(fsys); err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrator.NewFSMigrator(conn, fsys)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	l := log.With().Str("component", "migrator").Logger()
	return m.WithLogger(slog.New(slog.NewTextHandler(l, nil))), nil
}

// checkPairs fails on a version that lacks its up or down file. ptah would
// otherwise run a no-op for the missing half.
func checkPairs(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}
	type pair struct{ up, down bool }
	halves := map[int]pair{}
	for _, e := range entries {
		mf, err := migrator.ParseMigrationFileName(e.Name())
		if err != nil {
			continue
		}
		h := halves[mf.Version]
		switch mf.Direction {
		case "up":
			h.up = true
		case "down":
			h.down = true
		}
		halves[mf.Version] = h
	}
	for v, h := range halves {
		if !h.up || !h.down {
			return fmt.Errorf("migration %d is missing its up or down file", v)
		}
	}
	return nil
}

// Migrate applies every pending migration (Up) or rolls back the latest
// applied one (Down). Each migration runs in its own transaction.
func Migrate(ctx context.Context, dsn string, fsys fs.FS, dir Direction, log zerolog.Logger) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	conn, err := dbschema.ConnectToDatabase(dsn)
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	defer conn.Close()

	m, err := NewMigrator(conn, fsys, log)
	if err != nil {
		return err
	}
	if dir == Down {
		err = m.MigrateDown(ctx)
	} else {
		err = m.MigrateUp(ctx)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	log.Info().Str("direction", string(dir)).Msg("migrations done")
	return nil
}
