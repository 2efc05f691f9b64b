package core

import (
	"context"
	"time"
)

// Store is the common CRUD contract every storage adapter implements over the
// domain tables. Every operation except the user lookups is scoped by the
// authenticated user's id; a row owned by someone else reads as ErrNotFound.
type Store interface {
	// Provider names the backend this store talks to.
	Provider() Provider
	// Close releases the underlying connection or client.
	Close() error

	// Users. GetUserByUsername serves auth lookups and is not user-scoped.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, p UserPatch) (*User, error)

	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, userID, id string) (*Account, error)
	ListAccounts(ctx context.Context, userID string) ([]Account, error)
	UpdateAccount(ctx context.Context, userID, id string, p AccountPatch) (*Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error

	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, userID, id string) (*Category, error)
	ListCategories(ctx context.Context, userID string) ([]Category, error)
	UpdateCategory(ctx context.Context, userID, id string, p CategoryPatch) (*Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error

	CreateTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, p TransactionPatch) (*Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error

	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, userID, id string) (*Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]Budget, error)
	UpdateBudget(ctx context.Context, userID, id string, p BudgetPatch) (*Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) error

	CreateGoal(ctx context.Context, g *Goal) error
	GetGoal(ctx context.Context, userID, id string) (*Goal, error)
	ListGoals(ctx context.Context, userID string) ([]Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, p GoalPatch) (*Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error

	CreateBill(ctx context.Context, b *Bill) error
	GetBill(ctx context.Context, userID, id string) (*Bill, error)
	ListBills(ctx context.Context, userID string) ([]Bill, error)
	UpdateBill(ctx context.Context, userID, id string, p BillPatch) (*Bill, error)
	DeleteBill(ctx context.Context, userID, id string) error

	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, userID, id string) (*Product, error)
	ListProducts(ctx context.Context, userID string) ([]Product, error)
	UpdateProduct(ctx context.Context, userID, id string, p ProductPatch) (*Product, error)
	DeleteProduct(ctx context.Context, userID, id string) error
}

// ConfigRepository persists DatabaseConfig records in the bootstrap store.
type ConfigRepository interface {
	Create(cfg *DatabaseConfig) error
	GetAll() ([]DatabaseConfig, error)
	GetByID(id string) (*DatabaseConfig, error)
	GetActive() (*DatabaseConfig, error)
	Update(cfg *DatabaseConfig) error
	// SetActive flips the given config to active and every other config to
	// inactive in one transaction.
	SetActive(id string) error
	Delete(id string) error
	RecordTest(id string, at time.Time, ok bool) error
}

// MigrationRepository persists MigrationLog entries in the bootstrap store.
type MigrationRepository interface {
	Create(log *MigrationLog) error
	Update(log *MigrationLog) error
	GetAll() ([]MigrationLog, error)
}
