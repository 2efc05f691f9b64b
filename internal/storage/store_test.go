package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// The same behavioral suite runs against the memory store and the SQL store
// on SQLite, so both adapters honor the same contract.
func testStores(t *testing.T) map[string]core.Store {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db, FamilySQLite))

	return map[string]core.Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLStore(db, core.ProviderSQLite, FamilySQLite),
	}
}

func seedUser(t *testing.T, store core.Store, username string) core.User {
	t.Helper()
	u := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		FirstName:    "Test",
		LastName:     "User",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.CreateUser(context.Background(), &u))
	return u
}

func TestUserRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, store, "alice")

			got, err := store.GetUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, u.Username, got.Username)
			assert.Equal(t, u.PasswordHash, got.PasswordHash)

			byName, err := store.GetUserByUsername(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, u.ID, byName.ID)

			_, err = store.GetUser(ctx, uuid.NewString())
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}
}

func TestUpdateUserKeepsPasswordWhenEmpty(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, store, "bob")

			newEmail := "bob@new.example.com"
			empty := ""
			got, err := store.UpdateUser(ctx, u.ID, core.UserPatch{Email: &newEmail, Password: &empty})
			require.NoError(t, err)
			assert.Equal(t, newEmail, got.Email)
			assert.Equal(t, u.PasswordHash, got.PasswordHash, "empty password must not clear the hash")

			// nil password also leaves the hash alone
			newName := "Robert"
			got, err = store.UpdateUser(ctx, u.ID, core.UserPatch{FirstName: &newName})
			require.NoError(t, err)
			assert.Equal(t, u.PasswordHash, got.PasswordHash)

			// a real password replaces it
			newHash := "$2a$10$differenthash"
			got, err = store.UpdateUser(ctx, u.ID, core.UserPatch{Password: &newHash})
			require.NoError(t, err)
			assert.Equal(t, newHash, got.PasswordHash)
		})
	}
}

func TestAccountCRUDAndOwnership(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			owner := seedUser(t, store, "owner")
			other := seedUser(t, store, "other")

			account := core.Account{
				ID: uuid.NewString(), UserID: owner.ID, Name: "Checking",
				Type: "checking", Balance: decimal.RequireFromString("1234.56"),
				Currency: "USD", CreatedAt: time.Now().UTC().Truncate(time.Second),
			}
			require.NoError(t, store.CreateAccount(ctx, &account))

			got, err := store.GetAccount(ctx, owner.ID, account.ID)
			require.NoError(t, err)
			assert.True(t, got.Balance.Equal(account.Balance), "balance %s != %s", got.Balance, account.Balance)

			// another user's id reads as not found, not forbidden
			_, err = store.GetAccount(ctx, other.ID, account.ID)
			assert.ErrorIs(t, err, core.ErrNotFound)
			err = store.DeleteAccount(ctx, other.ID, account.ID)
			assert.ErrorIs(t, err, core.ErrNotFound)

			newBalance := decimal.RequireFromString("99.01")
			updated, err := store.UpdateAccount(ctx, owner.ID, account.ID, core.AccountPatch{Balance: &newBalance})
			require.NoError(t, err)
			assert.True(t, updated.Balance.Equal(newBalance))
			assert.Equal(t, "Checking", updated.Name, "unpatched fields keep their values")

			list, err := store.ListAccounts(ctx, owner.ID)
			require.NoError(t, err)
			assert.Len(t, list, 1)

			require.NoError(t, store.DeleteAccount(ctx, owner.ID, account.ID))
			_, err = store.GetAccount(ctx, owner.ID, account.ID)
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}
}

func TestTransactionFilters(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, store, "filters")

			acctA, acctB := uuid.NewString(), uuid.NewString()
			catFood := uuid.NewString()
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			mk := func(acct, cat, typ string, daysAfter int) core.Transaction {
				txn := core.Transaction{
					ID: uuid.NewString(), UserID: u.ID, AccountID: acct, CategoryID: cat,
					Amount: decimal.RequireFromString("10.00"), Type: typ,
					Description: "t", Date: base.AddDate(0, 0, daysAfter), CreatedAt: base,
				}
				require.NoError(t, store.CreateTransaction(ctx, &txn))
				return txn
			}

			mk(acctA, catFood, "expense", 0)
			mk(acctA, "", "income", 5)
			mk(acctB, catFood, "expense", 10)

			byAccount, err := store.ListTransactions(ctx, u.ID, core.TransactionFilter{AccountID: acctA})
			require.NoError(t, err)
			assert.Len(t, byAccount, 2)

			byCategory, err := store.ListTransactions(ctx, u.ID, core.TransactionFilter{CategoryID: catFood})
			require.NoError(t, err)
			assert.Len(t, byCategory, 2)

			byType, err := store.ListTransactions(ctx, u.ID, core.TransactionFilter{Type: "income"})
			require.NoError(t, err)
			assert.Len(t, byType, 1)

			window, err := store.ListTransactions(ctx, u.ID, core.TransactionFilter{
				From: base.AddDate(0, 0, 3), To: base.AddDate(0, 0, 7),
			})
			require.NoError(t, err)
			assert.Len(t, window, 1)

			all, err := store.ListTransactions(ctx, u.ID, core.TransactionFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestGoalAndBillNullableFields(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, store, "nullable")

			goal := core.Goal{
				ID: uuid.NewString(), UserID: u.ID, Name: "Vacation",
				TargetAmount:  decimal.RequireFromString("5000"),
				CurrentAmount: decimal.Zero,
				CreatedAt:     time.Now().UTC().Truncate(time.Second),
			}
			require.NoError(t, store.CreateGoal(ctx, &goal))

			got, err := store.GetGoal(ctx, u.ID, goal.ID)
			require.NoError(t, err)
			assert.Nil(t, got.TargetDate)

			target := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
			updated, err := store.UpdateGoal(ctx, u.ID, goal.ID, core.GoalPatch{TargetDate: &target})
			require.NoError(t, err)
			require.NotNil(t, updated.TargetDate)
			assert.True(t, updated.TargetDate.Equal(target))

			bill := core.Bill{
				ID: uuid.NewString(), UserID: u.ID, Name: "Electricity",
				Amount: decimal.RequireFromString("80.50"), DueDay: 15,
				Frequency: "monthly", AutoPay: false,
			}
			require.NoError(t, store.CreateBill(ctx, &bill))

			gotBill, err := store.GetBill(ctx, u.ID, bill.ID)
			require.NoError(t, err)
			assert.Nil(t, gotBill.LastPaid)
			assert.False(t, gotBill.AutoPay)

			paid := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
			auto := true
			updatedBill, err := store.UpdateBill(ctx, u.ID, bill.ID, core.BillPatch{LastPaid: &paid, AutoPay: &auto})
			require.NoError(t, err)
			require.NotNil(t, updatedBill.LastPaid)
			assert.True(t, updatedBill.AutoPay)
		})
	}
}

func TestUpdateMissingRowReturnsNotFound(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, store, "missing")

			n := "x"
			_, err := store.UpdateAccount(ctx, u.ID, uuid.NewString(), core.AccountPatch{Name: &n})
			assert.ErrorIs(t, err, core.ErrNotFound)
			_, err = store.UpdateProduct(ctx, u.ID, uuid.NewString(), core.ProductPatch{Name: &n})
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}
}

func TestSchemaProvisioning(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer db.Close()

	missing, err := MissingTables(ctx, db, FamilySQLite)
	require.NoError(t, err)
	assert.ElementsMatch(t, core.RequiredTables, missing)

	require.NoError(t, EnsureSchema(ctx, db, FamilySQLite))

	missing, err = MissingTables(ctx, db, FamilySQLite)
	require.NoError(t, err)
	assert.Empty(t, missing)

	// idempotent
	require.NoError(t, EnsureSchema(ctx, db, FamilySQLite))
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		provider core.Provider
		family   Family
		ok       bool
	}{
		{core.ProviderPostgres, FamilyPostgres, true},
		{core.ProviderNeon, FamilyPostgres, true},
		{core.ProviderMySQL, FamilyMySQL, true},
		{core.ProviderPlanetScale, FamilyMySQL, true},
		{core.ProviderSQLite, FamilySQLite, true},
		{core.ProviderSupabase, "", false},
		{core.ProviderMemory, "", false},
	}
	for _, tt := range tests {
		f, ok := FamilyOf(tt.provider)
		assert.Equal(t, tt.ok, ok, "%s", tt.provider)
		if ok {
			assert.Equal(t, tt.family, f, "%s", tt.provider)
		}
	}
}
