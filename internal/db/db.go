package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"
)

// Options describe the Postgres connection and pool sizing.
type Options struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string

	MaxOpenConns int
	MaxIdleConns int
}

// URL renders the postgres:// form of the DSN, which is what the migration
// runner wants.
func (o Options) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(o.User), url.QueryEscape(o.Password),
		o.Host, o.Port, o.Name)
}

// Connect opens the pool, verifies the connection with a ping, and applies
// the pool limits from Options.
func Connect(o Options) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		o.Host, o.Port, o.Name, o.User, o.Password,
	)
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if o.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(o.MaxIdleConns)
	}
	return pool, nil
}
