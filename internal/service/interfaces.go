// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/jqliu/bondflow/internal/model"
)

// BondQuery defines filtering options for stored bond queries.
type BondQuery struct {
	BondType  string // human-readable type as stored, e.g. "Treasury Bond"
	IssueYear string
	Issuer    string
	Limit     int
	Offset    int
}

// FetchRun records one completed fetch against the upstream API.
type FetchRun struct {
	StartedAt   time.Time
	CompletedAt time.Time
	BondType    string
	IssueYear   string
	Records     int
	ID          int64
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Bond operations
	SaveBonds(ctx context.Context, bonds []model.Bond) (int, error)
	GetBondByISIN(ctx context.Context, isin string) (*model.Bond, error)
	ListBonds(ctx context.Context, query BondQuery) ([]model.Bond, error)
	CountBonds(ctx context.Context) (int, error)

	// Fetch history
	RecordFetchRun(ctx context.Context, run *FetchRun) error
	ListFetchRuns(ctx context.Context, limit int) ([]FetchRun, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for remote operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
