// Package migrations carries the identities and accounts schema and applies
// it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Direction is the way Run moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Run applies every pending migration in the given direction. Being already
// at the target version is not an error.
func Run(dsn string, direction Direction) error {
	if dsn == "" {
		return errors.New("migrations: database url is empty")
	}
	if direction != Up && direction != Down {
		return fmt.Errorf("migrations: direction must be up or down, got %q", direction)
	}

	src, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("migrations: source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == Up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logx.WithField("direction", direction).Debug("migrations: schema already current")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrations: %s: %w", direction, err)
	}

	version, dirty, _ := m.Version()
	logx.WithFields(logx.Fields{"direction": direction, "version": version, "dirty": dirty}).Info("migrations: applied")
	return nil
}
