// Package health checks the reachability of the stores the search API reads.
package health

import (
	"context"
	"database/sql"
	"fmt"
)

// Checker reports whether a dependency can serve requests.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// DBChecker pings the listing database.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker creates a checker for db.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the pool.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
