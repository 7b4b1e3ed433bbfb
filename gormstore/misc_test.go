package gormstore

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// newSQLiteStore returns a migrated store over a private in-memory database.
func newSQLiteStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(DialectSQLite, ":memory:")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" opens its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := New(db)
	require.NoError(t, store.Migrate(context.Background()))

	return store
}

// sqlPattern turns a query written with "?" placeholders and backtick quoted
// identifiers into an anchored regexp matching both MySQL and PostgreSQL
// renderings.
func sqlPattern(query string) string {
	p := regexp.QuoteMeta(query)
	p = strings.ReplaceAll(p, `\?`, `(?:\$\d+|\?)`)
	p = strings.ReplaceAll(p, "`", "[`\"]")

	return "^" + p + "$"
}
