package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/playmatatu/slingshot/internal/logging"
	"go.uber.org/zap"
)

const migrationsTable = "schema_migrations_migrate"

// RunMigrations applies the file migrations in dir using the postgres driver.
// A database that already has the shots table but no migrate metadata is
// baselined to the latest version instead of re-running the schema.
func RunMigrations(databaseURL, dir string) error {
	log := logging.Named("migrate")
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if dir == "" {
		dir = "migrations"
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if tableExists(sqlDB, "shots") && !tableExists(sqlDB, migrationsTable) {
		if latest := findLatestMigrationVersion(dir); latest > 0 {
			log.Info("baselining existing schema", zap.Int64("version", latest))
			if ferr := m.Force(int(latest)); ferr != nil {
				log.Warn("force version failed", zap.Int64("version", latest), zap.Error(ferr))
			}
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	log.Info("migrations applied")
	return nil
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	row := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", name)
	return row.Scan(&exists) == nil && exists
}

// findLatestMigrationVersion returns the highest numeric prefix (000001_)
// among the files in dir.
func findLatestMigrationVersion(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	re := regexp.MustCompile(`^0*([0-9]+)_`)
	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(f.Name())
		if len(m) < 2 {
			continue
		}
		v, _ := strconv.ParseInt(m[1], 10, 64)
		if v > max {
			max = v
		}
	}
	return max
}
