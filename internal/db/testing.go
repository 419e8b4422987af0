package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// SkipWithoutTestDB skips database tests when TEST_POSTGRESQL_URL is unset.
func SkipWithoutTestDB(t *testing.T) {
	if os.Getenv("TEST_POSTGRESQL_URL") == "" {
		t.Skip("TEST_POSTGRESQL_URL is not set.")
	}
}

func applyMigrations(connString string) {
	migrationsPath := os.Getenv("TEST_MIGRATIONS_PATH")
	if migrationsPath == "" {
		panic("TEST_MIGRATIONS_PATH must be set.")
	}
	m, err := migrate.New("file://"+migrationsPath, connString)
	if err != nil {
		panic("Could not connect to DB for applying migrations.")
	}
	err = m.Up()
	if !errors.Is(err, migrate.ErrNoChange) && err != nil {
		panic(fmt.Sprintf("Could not apply DB migrations %v.", err))
	}
}

func CreateTestPool() *pgxpool.Pool {
	connString := os.Getenv("TEST_POSTGRESQL_URL")
	if connString == "" {
		panic("TEST_POSTGRESQL_URL must be set.")
	}
	applyMigrations(connString)

	ctx := context.Background()
	pool, err := pgxpool.Connect(ctx, connString)
	if err != nil {
		panic("Could not connect to the database.")
	}

	return pool
}

func TruncateTables(pool *pgxpool.Pool) {
	_, err := pool.Exec(
		context.Background(),
		`TRUNCATE "user", password_reset_token, rate_limit_counter, password_reset_audit`,
	)
	if err != nil {
		panic("Could not truncate DB tables.")
	}
}

// CreateTestUser inserts a user row directly, user registration is out of scope.
func CreateTestUser(pool *pgxpool.Pool, email string, passwordHash string) int64 {
	var id int64
	err := pool.QueryRow(
		context.Background(),
		`INSERT INTO "user" (email, password_hash, created_at) VALUES ($1, $2, now()) RETURNING id`,
		email,
		passwordHash,
	).Scan(&id)
	if err != nil {
		panic(fmt.Sprintf("Could not create test user: %v.", err))
	}
	return id
}
