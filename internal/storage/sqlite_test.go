package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jqliu/bondflow/internal/common"
	"github.com/jqliu/bondflow/internal/model"
	"github.com/jqliu/bondflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Helper function to create test bonds.
func createTestBonds(count int) []model.Bond {
	bonds := make([]model.Bond, count)
	for i := 0; i < count; i++ {
		bonds[i] = model.Bond{
			ISIN:      fmt.Sprintf("CND10006Y%03d", i),
			Code:      fmt.Sprintf("23%04d", i),
			Issuer:    fmt.Sprintf("Issuer %d", i%3),
			BondType:  "Treasury Bond",
			IssueDate: fmt.Sprintf("2023-%02d-15", (i%12)+1),
			Rating:    "AAA",
		}
		bonds[i].Hash = bonds[i].GenerateHash()
	}
	return bonds
}

func TestSQLiteStorage_SaveBonds(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bonds := createTestBonds(5)
	inserted, err := store.SaveBonds(ctx, bonds)
	require.NoError(t, err)
	assert.Equal(t, 5, inserted)

	count, err := store.CountBonds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestSQLiteStorage_SaveBonds_Dedupe(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bonds := createTestBonds(5)
	_, err := store.SaveBonds(ctx, bonds)
	require.NoError(t, err)

	// Re-saving the same records inserts nothing new.
	inserted, err := store.SaveBonds(ctx, bonds)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	// A mixed batch only inserts the unseen records.
	mixed := append(createTestBonds(5), createTestBonds(8)[5:]...)
	inserted, err = store.SaveBonds(ctx, mixed)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
}

func TestSQLiteStorage_SaveBonds_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveBonds(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	_, err = store.SaveBonds(ctx, []model.Bond{})
	assert.ErrorIs(t, err, ErrEmptySlice)

	_, err = store.SaveBonds(ctx, []model.Bond{{Issuer: "No Codes"}})
	assert.ErrorIs(t, err, ErrInvalidBond)
}

func TestSQLiteStorage_GetBondByISIN(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bonds := createTestBonds(3)
	_, err := store.SaveBonds(ctx, bonds)
	require.NoError(t, err)

	got, err := store.GetBondByISIN(ctx, bonds[1].ISIN)
	require.NoError(t, err)
	assert.Equal(t, bonds[1], *got)

	_, err = store.GetBondByISIN(ctx, "CND0000000000")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_ListBonds_Filters(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bonds := createTestBonds(6)
	bonds[0].BondType = "Local Government Bond"
	bonds[1].IssueDate = "2022-03-15"
	for i := range bonds {
		bonds[i].Hash = bonds[i].GenerateHash()
	}
	_, err := store.SaveBonds(ctx, bonds)
	require.NoError(t, err)

	byType, err := store.ListBonds(ctx, service.BondQuery{BondType: "Local Government Bond"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, bonds[0].ISIN, byType[0].ISIN)

	byYear, err := store.ListBonds(ctx, service.BondQuery{IssueYear: "2023"})
	require.NoError(t, err)
	assert.Len(t, byYear, 5)
	for _, b := range byYear {
		assert.Equal(t, "2023", b.IssueYear())
	}

	byIssuer, err := store.ListBonds(ctx, service.BondQuery{Issuer: "Issuer 1"})
	require.NoError(t, err)
	assert.Len(t, byIssuer, 2)

	limited, err := store.ListBonds(ctx, service.BondQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteStorage_ListBonds_Ordering(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bonds := createTestBonds(6)
	_, err := store.SaveBonds(ctx, bonds)
	require.NoError(t, err)

	listed, err := store.ListBonds(ctx, service.BondQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 6)
	for i := 1; i < len(listed); i++ {
		assert.LessOrEqual(t, listed[i-1].IssueDate, listed[i].IssueDate)
	}
}

func TestSQLiteStorage_FetchRuns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	run := &service.FetchRun{
		BondType:    "100001",
		IssueYear:   "2023",
		Records:     120,
		StartedAt:   started,
		CompletedAt: started.Add(30 * time.Second),
	}
	require.NoError(t, store.RecordFetchRun(ctx, run))
	assert.NotZero(t, run.ID)

	runs, err := store.ListFetchRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "100001", runs[0].BondType)
	assert.Equal(t, 120, runs[0].Records)
}

func TestSQLiteStorage_Migrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}
