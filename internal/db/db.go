package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type Config struct {
	DSN string
}

func Open(cfg Config) (*sql.DB, error) {
	dsn := cfg.DSN
	// Time columns scan into time.Time only with parseTime on.
	if !strings.Contains(dsn, "parseTime") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true"
	}

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// A sync run holds at most a couple of connections (one flush at a
	// time); leave headroom for the API side.
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return sqlDB, nil
}

func Ping(ctx context.Context, sqlDB *sql.DB) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(c)
}
