// Package storagetest provides a throwaway SQLite store for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/entity/user"
	"max.ks1230/billtracker/internal/model/storage"
)

type sqliteConfig string

func (c sqliteConfig) Driver() string { return storage.DriverSQLite }
func (c sqliteConfig) DSN() string { return string(c) }

// New opens a migrated SQLite store in a temp dir that is removed with t.
func New(t testing.TB) *storage.Storage {
	t.Helper()

	store, err := storage.New(sqliteConfig(filepath.Join(t.TempDir(), "billtracker.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// CreateUser inserts a user with a unique email.
func CreateUser(t testing.TB, store *storage.Storage) user.Record {
	t.Helper()

	id := uuid.New()
	rec := user.Record{
		ID:        id,
		Email:     id.String() + "@example.com",
		UserName:  "user-" + id.String()[:8],
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(context.Background(), &rec))
	return rec
}

// CreateExpenseType inserts a type named name for userID.
func CreateExpenseType(t testing.TB, store *storage.Storage, userID uuid.UUID, name string) expense.Type {
	t.Helper()

	rec := expense.Type{ID: uuid.New(), UserID: userID, Name: name}
	require.NoError(t, store.CreateExpenseType(context.Background(), &rec))
	return rec
}

// CreateExpense inserts an expense of amount 1 in its own finalized
// aggregate, both named name.
func CreateExpense(t testing.TB, store *storage.Storage, userID uuid.UUID, name string) expense.Record {
	t.Helper()

	ctx := context.Background()
	agg := expense.Aggregate{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		AddedDate: time.Now(),
	}
	rec := expense.Record{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Amount:      decimal.NewFromInt(1),
		AggregateID: agg.ID,
		AddedDate:   agg.AddedDate,
	}
	err := store.InTx(ctx, func(tx *storage.Tx) error {
		if err := tx.InsertAggregate(ctx, &agg); err != nil {
			return err
		}
		return tx.InsertExpense(ctx, &rec)
	})
	require.NoError(t, err)
	return rec
}
