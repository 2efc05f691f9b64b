package core

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Frontend expects plain JSON numbers for money fields.
	decimal.MarshalJSONWithoutQuotes = true
}

// Provider identifies a database backend kind.
type Provider string

const (
	ProviderPostgres    Provider = "postgresql"
	ProviderSupabase    Provider = "supabase"
	ProviderSQLite      Provider = "sqlite"
	ProviderNeon        Provider = "neon"
	ProviderMySQL       Provider = "mysql"
	ProviderPlanetScale Provider = "planetscale"
	// ProviderMemory backs the registry before initialization completes.
	// It is never offered as a configurable provider.
	ProviderMemory Provider = "memory"
)

// Providers lists every provider a DatabaseConfig may name.
func Providers() []Provider {
	return []Provider{
		ProviderPostgres, ProviderSupabase, ProviderSQLite,
		ProviderNeon, ProviderMySQL, ProviderPlanetScale,
	}
}

// Credentials holds the provider-shaped connection settings. Only the fields
// relevant to the config's provider are populated; the rest stay zero.
type Credentials struct {
	ConnectionString   string `json:"connectionString,omitempty"`
	Host               string `json:"host,omitempty"`
	Port               int    `json:"port,omitempty"`
	Database           string `json:"database,omitempty"`
	Username           string `json:"username,omitempty"`
	Password           string `json:"password,omitempty"`
	SSLMode            string `json:"sslMode,omitempty"`
	FilePath           string `json:"filePath,omitempty"`
	SupabaseURL        string `json:"supabaseUrl,omitempty"`
	SupabaseAnonKey    string `json:"supabaseAnonKey,omitempty"`
	SupabaseServiceKey string `json:"supabaseServiceKey,omitempty"`
	AutoCreateTables   bool   `json:"autoCreateTables,omitempty"`
}

// DatabaseConfig is a stored candidate (or active) storage backend.
// At most one config has IsActive=true at any time.
type DatabaseConfig struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Provider           Provider    `json:"provider"`
	Credentials        Credentials `json:"credentials"`
	IsActive           bool        `json:"isActive"`
	IsConnected        bool        `json:"isConnected"`
	LastConnectionTest *time.Time  `json:"lastConnectionTest,omitempty"`
	LastTestSucceeded  *bool       `json:"lastTestSucceeded,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// Tested reports whether the most recent connection test succeeded.
func (c *DatabaseConfig) Tested() bool {
	return c.LastTestSucceeded != nil && *c.LastTestSucceeded
}

// MigrationLog is an append-only audit record of a data migration between
// providers. Mutated only by the migration itself, never deleted.
type MigrationLog struct {
	ID              string     `json:"id"`
	FromProvider    Provider   `json:"fromProvider,omitempty"`
	ToProvider      Provider   `json:"toProvider"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	RecordsMigrated int        `json:"recordsMigrated"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
}

// MigrationLog statuses.
const (
	MigrationPending    = "pending"
	MigrationInProgress = "in_progress"
	MigrationCompleted  = "completed"
	MigrationFailed     = "failed"
)

// ConnectionTestResult reports one probe against a candidate config.
// Transient, never persisted.
type ConnectionTestResult struct {
	Success   bool               `json:"success"`
	LatencyMs int64              `json:"latencyMs,omitempty"`
	Details   *ConnectionDetails `json:"details,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// ConnectionDetails carries what a successful probe learned about the target.
type ConnectionDetails struct {
	Host          string   `json:"host"`
	Database      string   `json:"database"`
	Version       string   `json:"version"`
	MissingTables []string `json:"missingTables"`
}

// ValidationResult accumulates every problem found in a config so the UI can
// show them all at once.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// RequiredTables is the schema every storage backend must carry.
var RequiredTables = []string{
	"users", "accounts", "categories", "transactions",
	"budgets", "goals", "bills", "products",
}

// --- Domain entities ---

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Type      string          `json:"type"` // checking, savings, credit, cash, investment
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Category struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Type   string `json:"type"` // income, expense
	Color  string `json:"color"`
	Icon   string `json:"icon"`
}

type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	AccountID   string          `json:"accountId"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"` // income, expense, transfer
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Budget struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"` // weekly, monthly, yearly
	StartDate  time.Time       `json:"startDate"`
}

type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    *time.Time      `json:"targetDate,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Bill struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	DueDay    int             `json:"dueDay"`    // 1..31
	Frequency string          `json:"frequency"` // weekly, monthly, yearly
	AutoPay   bool            `json:"autoPay"`
	LastPaid  *time.Time      `json:"lastPaid,omitempty"`
}

type Product struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Store         string          `json:"store,omitempty"`
	LastPurchased *time.Time      `json:"lastPurchased,omitempty"`
}

// --- Patch types: nil field means "leave unchanged" ---

// UserPatch updates a user profile. A nil or empty Password never touches the
// stored hash; callers set Password only when the user typed a new one.
type UserPatch struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

type AccountPatch struct {
	Name     *string          `json:"name,omitempty"`
	Type     *string          `json:"type,omitempty"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
	Currency *string          `json:"currency,omitempty"`
}

type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Type  *string `json:"type,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

type TransactionPatch struct {
	AccountID   *string          `json:"accountId,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Type        *string          `json:"type,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}

type BudgetPatch struct {
	CategoryID *string          `json:"categoryId,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Period     *string          `json:"period,omitempty"`
	StartDate  *time.Time       `json:"startDate,omitempty"`
}

type GoalPatch struct {
	Name          *string          `json:"name,omitempty"`
	TargetAmount  *decimal.Decimal `json:"targetAmount,omitempty"`
	CurrentAmount *decimal.Decimal `json:"currentAmount,omitempty"`
	TargetDate    *time.Time       `json:"targetDate,omitempty"`
}

type BillPatch struct {
	Name      *string          `json:"name,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	DueDay    *int             `json:"dueDay,omitempty"`
	Frequency *string          `json:"frequency,omitempty"`
	AutoPay   *bool            `json:"autoPay,omitempty"`
	LastPaid  *time.Time       `json:"lastPaid,omitempty"`
}

type ProductPatch struct {
	Name          *string          `json:"name,omitempty"`
	Barcode       *string          `json:"barcode,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Store         *string          `json:"store,omitempty"`
	LastPurchased *time.Time       `json:"lastPurchased,omitempty"`
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Type       string
	From       time.Time
	To         time.Time
}
