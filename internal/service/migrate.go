package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/logger"
)

// Migrator copies all domain data from one storage adapter to another and
// keeps an audit trail in the migration log.
type Migrator struct {
	logs core.MigrationRepository
}

func NewMigrator(logs core.MigrationRepository) *Migrator {
	return &Migrator{logs: logs}
}

// Run copies everything from src to dst, recording progress in a
// MigrationLog. The destination is assumed freshly provisioned; rows that
// already exist there will collide on primary key and fail the migration.
func (m *Migrator) Run(ctx context.Context, src, dst core.Store) error {
	entry := &core.MigrationLog{
		ID:           uuid.NewString(),
		FromProvider: src.Provider(),
		ToProvider:   dst.Provider(),
		Status:       core.MigrationPending,
		StartedAt:    time.Now().UTC(),
	}
	if err := m.logs.Create(entry); err != nil {
		return err
	}

	entry.Status = core.MigrationInProgress
	if err := m.logs.Update(entry); err != nil {
		return err
	}

	count, err := copyAll(ctx, src, dst)
	entry.RecordsMigrated = count
	now := time.Now().UTC()
	entry.CompletedAt = &now
	if err != nil {
		entry.Status = core.MigrationFailed
		entry.ErrorMessage = err.Error()
		if uerr := m.logs.Update(entry); uerr != nil {
			logger.Error.Printf("updating failed migration log: %v", uerr)
		}
		return err
	}

	entry.Status = core.MigrationCompleted
	if err := m.logs.Update(entry); err != nil {
		logger.Error.Printf("updating migration log: %v", err)
	}
	logger.Info.Printf("migrated %d records from %s to %s", count, src.Provider(), dst.Provider())
	return nil
}

// copyAll moves users first so every user-scoped row lands under an existing
// owner, then each entity table per user.
func copyAll(ctx context.Context, src, dst core.Store) (int, error) {
	total := 0

	users, err := src.ListUsers(ctx)
	if err != nil {
		return total, fmt.Errorf("read users: %w", err)
	}
	for i := range users {
		if err := dst.CreateUser(ctx, &users[i]); err != nil {
			return total, fmt.Errorf("copy user %s: %w", users[i].Username, err)
		}
		total++
	}

	for i := range users {
		n, err := copyUserData(ctx, src, dst, users[i].ID)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func copyUserData(ctx context.Context, src, dst core.Store, userID string) (int, error) {
	total := 0

	accounts, err := src.ListAccounts(ctx, userID)
	if err != nil {
		return total, fmt.Errorf("read accounts: %w", err)
	}
	for i := range accounts {
		if err := dst.CreateAccount(ctx, &accounts[i]); err != nil {
			return total, fmt.Errorf("copy account: %w", err)
		}
		total++
	}

	categories, err := src.ListCategories(ctx, userID)
	if err != nil {
		return total, fmt.Errorf("read categories: %w", err)
	}
	for i := range categories {
		if err := dst.CreateCategory(ctx, &categories[i]); err != nil {
			return total, fmt.Errorf("copy category: %w", err)
		}
		total++
	}

	txns, err := src.ListTransactions(ctx, userID, core.TransactionFilter{})
	if err != nil {
		return total, fmt.Errorf("read transactions: %w", err)
	}
	for i := range txns {
		if err := dst.CreateTransaction(ctx, &txns[i]); err != nil {
			return total, fmt.Errorf("copy transaction: %w", err)
		}
		total++
	}

	budgets, err := src.ListBudgets(ctx, userID)
	if err != nil {
		return total, fmt.Errorf("read budgets: %w", err)
	}
	for i := range budgets {
		if err := dst.CreateBudget(ctx, &budgets[i]); err != nil {
			return total, fmt.Errorf("copy budget: %w", err)
		}
		total++
	}

	goals, err := src.ListGoals(ctx, userID)
	if err != nil {
		return total, fmt.Errorf("read goals: %w", err)
	}
	for i := range goals {
		if err := dst.CreateGoal(ctx, &goals[i]); err != nil {
			return total, fmt.Errorf("copy goal: %w", err)
		}
		total++
	}

	bills, err := src.ListBills(ctx, userID)
	if err != nil {
		return total, fmt.Errorf("read bills: %w", err)
	}
	for i := range bills {
		if err := dst.CreateBill(ctx, &bills[i]); err != nil {
			return total, fmt.Errorf("copy bill: %w", err)
		}
		total++
	}

	products, err := src.ListProducts(ctx, userID)
	if err != nil {
		return total, fmt.Errorf("read products: %w", err)
	}
	for i := range products {
		if err := dst.CreateProduct(ctx, &products[i]); err != nil {
			return total, fmt.Errorf("copy product: %w", err)
		}
		total++
	}

	return total, nil
}
