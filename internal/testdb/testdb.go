// Package testdb provides migrated stores for tests: an in-memory SQLite
// database, and a throwaway Postgres schema when POS_TEST_DSN is set.
package testdb

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"pos-backend/internal/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresDSNEnv names the variable holding the DSN of a Postgres database
// the integration tests may create schemas in.
const PostgresDSNEnv = "POS_TEST_DSN"

var seq atomic.Int64

// New returns a fresh, migrated and seeded database private to the test.
// The pool is capped at one connection, so concurrent transactions run one
// after another; SQLite ignores row locks. Lock behaviour is only exercised
// by Postgres.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, seq.Add(1))

	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	prepare(t, db)
	return db
}

// Postgres returns a migrated and seeded store in a fresh schema of the
// database named by POS_TEST_DSN, behind a real connection pool. The schema
// is dropped when the test ends. Skips the test when the variable is unset.
func Postgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	admin, err := database.Open(postgres.Open(dsn))
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	adminDB, err := admin.DB()
	if err != nil {
		t.Fatalf("postgres handle: %v", err)
	}

	schema := "pos_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if err := admin.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		_ = adminDB.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		_ = adminDB.Close()
	})

	db, err := database.Open(postgres.Open(withSearchPath(dsn, schema)))
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("postgres handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { _ = sqlDB.Close() })

	prepare(t, db)
	return db
}

func withSearchPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}

func prepare(t testing.TB, db *gorm.DB) {
	t.Helper()
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
}
