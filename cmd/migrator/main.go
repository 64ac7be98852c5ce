package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	downFlag          = "down"

	storageEnvName        = "STORE_SQL_DB"
	defaultMigrationsPath = "./migrations"
)

func main() {
	storagePath, migrationsPath, down := getFlagsValues()
	validateFlags(storagePath, migrationsPath)
	makeMigrations(toMigrateURL(storagePath), migrationsPath, down)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

// getFlagsValues falls back to STORE_SQL_DB for the storage path, the
// same variable the store reads its DSN from.
func getFlagsValues() (storage, migrations string, down bool) {
	storagePath := pflag.StringP(
		storagePathFlag, "s", os.Getenv(storageEnvName), "postgres DSN",
	)
	migrationsPath := pflag.StringP(
		migrationPathFlag, "m", defaultMigrationsPath, "migrations directory",
	)
	rollback := pflag.Bool(downFlag, false, "roll back all migrations")
	pflag.Parse()
	return *storagePath, *migrationsPath, *rollback
}

func validateFlags(storagePath, migrationsPath string) {
	var errs []error

	if storagePath == "" {
		errs = append(errs, fmt.Errorf(
			"--%s flag or %s: required", storagePathFlag, storageEnvName,
		))
	}

	if migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

// toMigrateURL accepts both a bare "user:pass@host/db" and a
// postgres:// DSN.
func toMigrateURL(storagePath string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(storagePath, scheme); ok {
			return "pgx5://" + rest
		}
	}
	if strings.HasPrefix(storagePath, "pgx5://") {
		return storagePath
	}
	return "pgx5://" + storagePath
}

func makeMigrations(databaseURL, migrationsPath string, down bool) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		databaseURL,
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}

	m.Log = NewMigrationLogger()

	apply := m.Up
	if down {
		apply = m.Down
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied")
}

func fallDown() {
	os.Exit(2)
}
