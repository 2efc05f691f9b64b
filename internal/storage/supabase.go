package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// SupabaseStore implements core.Store against the Supabase PostgREST API.
// The anon key is used for normal CRUD; the optional service key is used
// once, lazily, to create missing tables on the first write. Without a
// service key a missing schema surfaces as a SETUP REQUIRED error telling the
// user exactly what to run in the SQL editor.
type SupabaseStore struct {
	baseURL    string
	anonKey    string
	serviceKey string
	autoCreate bool
	client     *http.Client

	provisionOnce sync.Once
	provisionErr  error
}

func NewSupabaseStore(creds core.Credentials) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(creds.SupabaseURL, "/"),
		anonKey:    creds.SupabaseAnonKey,
		serviceKey: creds.SupabaseServiceKey,
		autoCreate: creds.AutoCreateTables,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStore) Provider() core.Provider { return core.ProviderSupabase }

func (s *SupabaseStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// restURL builds {base}/rest/v1/{table}?{filters}.
func (s *SupabaseStore) restURL(table string, filters url.Values) string {
	u := s.baseURL + "/rest/v1/" + table
	if len(filters) > 0 {
		u += "?" + filters.Encode()
	}
	return u
}

func (s *SupabaseStore) do(ctx context.Context, method, rawURL string, body any, prefer string, useServiceKey bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}

	key := s.anonKey
	if useServiceKey && s.serviceKey != "" {
		key = s.serviceKey
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	return s.client.Do(req)
}

// tableMissing matches PostgREST's "relation does not exist" responses.
func tableMissing(status int, body string) bool {
	if status == http.StatusNotFound {
		return true
	}
	return strings.Contains(body, "PGRST205") || strings.Contains(body, "42P01")
}

func (s *SupabaseStore) apiError(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("supabase rejected the API key (HTTP %d)", status)
	case tableMissing(status, body):
		return s.setupRequiredError(nil)
	default:
		return fmt.Errorf("supabase request failed (HTTP %d): %s", status, strings.TrimSpace(body))
	}
}

// MissingTables reports which required tables PostgREST cannot see. Used by
// the connection probe and by lazy provisioning; read-only.
func (s *SupabaseStore) MissingTables(ctx context.Context) ([]string, error) {
	missing := []string{}
	for _, table := range core.RequiredTables {
		filters := url.Values{}
		filters.Set("select", "id")
		filters.Set("limit", "0")

		resp, err := s.do(ctx, http.MethodGet, s.restURL(table, filters), nil, "", false)
		if err != nil {
			return nil, err
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			// table exists
		case tableMissing(resp.StatusCode, string(body)):
			missing = append(missing, table)
		default:
			return nil, s.apiError(resp.StatusCode, string(body))
		}
	}
	return missing, nil
}

// setupRequiredError is the instructional block surfaced verbatim to the UI
// when the schema is absent and we cannot create it ourselves.
func (s *SupabaseStore) setupRequiredError(missing []string) error {
	tables := strings.Join(missing, ", ")
	if tables == "" {
		tables = strings.Join(core.RequiredTables, ", ")
	}
	return fmt.Errorf("%w: the following tables are missing from your Supabase project: %s.\n"+
		"Open the Supabase SQL editor and run the schema below, or supply a service role key "+
		"so the tables can be created automatically:\n\n%s",
		core.ErrSetupRequired, tables, strings.Join(SchemaStatements(FamilyPostgres), ";\n\n")+";")
}

// ensureSchema runs once before the first write. With a service key it tries
// to create missing tables through the exec_sql RPC; otherwise a missing
// schema is a SETUP REQUIRED failure.
func (s *SupabaseStore) ensureSchema(ctx context.Context) error {
	s.provisionOnce.Do(func() {
		missing, err := s.MissingTables(ctx)
		if err != nil {
			s.provisionErr = err
			return
		}
		if len(missing) == 0 {
			return
		}
		if s.serviceKey == "" || !s.autoCreate {
			s.provisionErr = s.setupRequiredError(missing)
			return
		}

		ddl := strings.Join(SchemaStatements(FamilyPostgres), "; ") + ";"
		resp, err := s.do(ctx, http.MethodPost, s.baseURL+"/rest/v1/rpc/exec_sql",
			map[string]string{"sql": ddl}, "", true)
		if err != nil {
			s.provisionErr = err
			return
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			// No exec_sql helper installed; fall back to instructions.
			s.provisionErr = s.setupRequiredError(missing)
			return
		}

		if remaining, err := s.MissingTables(ctx); err == nil && len(remaining) > 0 {
			s.provisionErr = s.setupRequiredError(remaining)
		}
	})
	return s.provisionErr
}

func eq(v string) string { return "eq." + v }

// insert POSTs one row.
func (s *SupabaseStore) insert(ctx context.Context, table string, row any) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	resp, err := s.do(ctx, http.MethodPost, s.restURL(table, nil), row, "return=minimal", false)
	if err != nil {
		return fmt.Errorf("supabase insert into %s: %w", table, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return s.apiError(resp.StatusCode, string(body))
	}
	return nil
}

// selectInto GETs rows matching the filters into out (a pointer to a slice).
func (s *SupabaseStore) selectInto(ctx context.Context, table string, filters url.Values, out any) error {
	resp, err := s.do(ctx, http.MethodGet, s.restURL(table, filters), nil, "", false)
	if err != nil {
		return fmt.Errorf("supabase select from %s: %w", table, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return s.apiError(resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// patchRow PATCHes the filtered row and reports whether anything matched.
func (s *SupabaseStore) patchRow(ctx context.Context, table string, filters url.Values, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	resp, err := s.do(ctx, http.MethodPatch, s.restURL(table, filters), changes, "return=representation", false)
	if err != nil {
		return fmt.Errorf("supabase update %s: %w", table, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return s.apiError(resp.StatusCode, string(body))
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) deleteRow(ctx context.Context, table string, filters url.Values) error {
	resp, err := s.do(ctx, http.MethodDelete, s.restURL(table, filters), nil, "return=representation", false)
	if err != nil {
		return fmt.Errorf("supabase delete from %s: %w", table, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return s.apiError(resp.StatusCode, string(body))
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return core.ErrNotFound
	}
	return nil
}

func userScope(userID, id string) url.Values {
	f := url.Values{}
	f.Set("id", eq(id))
	f.Set("user_id", eq(userID))
	return f
}

func listScope(userID string) url.Values {
	f := url.Values{}
	f.Set("user_id", eq(userID))
	return f
}

// --- wire rows (snake_case to match the column names) ---

type supaUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r supaUser) toCore() core.User {
	return core.User{ID: r.ID, Username: r.Username, Email: r.Email, PasswordHash: r.PasswordHash,
		FirstName: r.FirstName, LastName: r.LastName, CreatedAt: r.CreatedAt}
}

type supaAccount struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r supaAccount) toCore() core.Account {
	return core.Account{ID: r.ID, UserID: r.UserID, Name: r.Name, Type: r.Type,
		Balance: r.Balance, Currency: r.Currency, CreatedAt: r.CreatedAt}
}

type supaCategory struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
}

func (r supaCategory) toCore() core.Category {
	return core.Category{ID: r.ID, UserID: r.UserID, Name: r.Name, Type: r.Type, Color: r.Color, Icon: r.Icon}
}

type supaTransaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	AccountID   string          `json:"account_id"`
	CategoryID  *string         `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        time.Time       `json:"txn_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r supaTransaction) toCore() core.Transaction {
	t := core.Transaction{ID: r.ID, UserID: r.UserID, AccountID: r.AccountID, Amount: r.Amount,
		Type: r.Type, Description: r.Description, Date: r.Date, CreatedAt: r.CreatedAt}
	if r.CategoryID != nil {
		t.CategoryID = *r.CategoryID
	}
	return t
}

type supaBudget struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	StartDate  time.Time       `json:"start_date"`
}

func (r supaBudget) toCore() core.Budget {
	return core.Budget{ID: r.ID, UserID: r.UserID, CategoryID: r.CategoryID,
		Amount: r.Amount, Period: r.Period, StartDate: r.StartDate}
}

type supaGoal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (r supaGoal) toCore() core.Goal {
	return core.Goal{ID: r.ID, UserID: r.UserID, Name: r.Name, TargetAmount: r.TargetAmount,
		CurrentAmount: r.CurrentAmount, TargetDate: r.TargetDate, CreatedAt: r.CreatedAt}
}

type supaBill struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	DueDay    int             `json:"due_day"`
	Frequency string          `json:"frequency"`
	AutoPay   bool            `json:"auto_pay"`
	LastPaid  *time.Time      `json:"last_paid"`
}

func (r supaBill) toCore() core.Bill {
	return core.Bill{ID: r.ID, UserID: r.UserID, Name: r.Name, Amount: r.Amount,
		DueDay: r.DueDay, Frequency: r.Frequency, AutoPay: r.AutoPay, LastPaid: r.LastPaid}
}

type supaProduct struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode"`
	Price         decimal.Decimal `json:"price"`
	Store         string          `json:"store"`
	LastPurchased *time.Time      `json:"last_purchased"`
}

func (r supaProduct) toCore() core.Product {
	return core.Product{ID: r.ID, UserID: r.UserID, Name: r.Name, Barcode: r.Barcode,
		Price: r.Price, Store: r.Store, LastPurchased: r.LastPurchased}
}

// --- Users ---

func (s *SupabaseStore) CreateUser(ctx context.Context, u *core.User) error {
	return s.insert(ctx, "users", supaUser{ID: u.ID, Username: u.Username, Email: u.Email,
		PasswordHash: u.PasswordHash, FirstName: u.FirstName, LastName: u.LastName, CreatedAt: u.CreatedAt})
}

func (s *SupabaseStore) getUserBy(ctx context.Context, field, value string) (*core.User, error) {
	f := url.Values{}
	f.Set(field, eq(value))
	f.Set("limit", "1")
	var rows []supaUser
	if err := s.selectInto(ctx, "users", f, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	u := rows[0].toCore()
	return &u, nil
}

func (s *SupabaseStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *SupabaseStore) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.getUserBy(ctx, "username", username)
}

func (s *SupabaseStore) ListUsers(ctx context.Context) ([]core.User, error) {
	var rows []supaUser
	if err := s.selectInto(ctx, "users", url.Values{}, &rows); err != nil {
		return nil, err
	}
	users := make([]core.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toCore())
	}
	return users, nil
}

func (s *SupabaseStore) UpdateUser(ctx context.Context, id string, p core.UserPatch) (*core.User, error) {
	changes := map[string]any{}
	if p.Username != nil {
		changes["username"] = *p.Username
	}
	if p.Email != nil {
		changes["email"] = *p.Email
	}
	// Empty or absent password keeps the stored hash.
	if p.Password != nil && *p.Password != "" {
		changes["password_hash"] = *p.Password
	}
	if p.FirstName != nil {
		changes["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		changes["last_name"] = *p.LastName
	}

	f := url.Values{}
	f.Set("id", eq(id))
	if err := s.patchRow(ctx, "users", f, changes); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// --- Accounts ---

func (s *SupabaseStore) CreateAccount(ctx context.Context, a *core.Account) error {
	return s.insert(ctx, "accounts", supaAccount{ID: a.ID, UserID: a.UserID, Name: a.Name,
		Type: a.Type, Balance: a.Balance, Currency: a.Currency, CreatedAt: a.CreatedAt})
}

func (s *SupabaseStore) GetAccount(ctx context.Context, userID, id string) (*core.Account, error) {
	var rows []supaAccount
	if err := s.selectInto(ctx, "accounts", userScope(userID, id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	a := rows[0].toCore()
	return &a, nil
}

func (s *SupabaseStore) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	var rows []supaAccount
	if err := s.selectInto(ctx, "accounts", listScope(userID), &rows); err != nil {
		return nil, err
	}
	out := make([]core.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *SupabaseStore) UpdateAccount(ctx context.Context, userID, id string, p core.AccountPatch) (*core.Account, error) {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.Type != nil {
		changes["type"] = *p.Type
	}
	if p.Balance != nil {
		changes["balance"] = *p.Balance
	}
	if p.Currency != nil {
		changes["currency"] = *p.Currency
	}
	if err := s.patchRow(ctx, "accounts", userScope(userID, id), changes); err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, userID, id)
}

func (s *SupabaseStore) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "accounts", userScope(userID, id))
}

// --- Categories ---

func (s *SupabaseStore) CreateCategory(ctx context.Context, c *core.Category) error {
	return s.insert(ctx, "categories", supaCategory{ID: c.ID, UserID: c.UserID, Name: c.Name,
		Type: c.Type, Color: c.Color, Icon: c.Icon})
}

func (s *SupabaseStore) GetCategory(ctx context.Context, userID, id string) (*core.Category, error) {
	var rows []supaCategory
	if err := s.selectInto(ctx, "categories", userScope(userID, id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	c := rows[0].toCore()
	return &c, nil
}

func (s *SupabaseStore) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	var rows []supaCategory
	if err := s.selectInto(ctx, "categories", listScope(userID), &rows); err != nil {
		return nil, err
	}
	out := make([]core.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *SupabaseStore) UpdateCategory(ctx context.Context, userID, id string, p core.CategoryPatch) (*core.Category, error) {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.Type != nil {
		changes["type"] = *p.Type
	}
	if p.Color != nil {
		changes["color"] = *p.Color
	}
	if p.Icon != nil {
		changes["icon"] = *p.Icon
	}
	if err := s.patchRow(ctx, "categories", userScope(userID, id), changes); err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, userID, id)
}

func (s *SupabaseStore) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "categories", userScope(userID, id))
}

// --- Transactions ---

func (s *SupabaseStore) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	row := supaTransaction{ID: t.ID, UserID: t.UserID, AccountID: t.AccountID, Amount: t.Amount,
		Type: t.Type, Description: t.Description, Date: t.Date, CreatedAt: t.CreatedAt}
	if t.CategoryID != "" {
		row.CategoryID = &t.CategoryID
	}
	return s.insert(ctx, "transactions", row)
}

func (s *SupabaseStore) GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	var rows []supaTransaction
	if err := s.selectInto(ctx, "transactions", userScope(userID, id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	t := rows[0].toCore()
	return &t, nil
}

func (s *SupabaseStore) ListTransactions(ctx context.Context, userID string, filter core.TransactionFilter) ([]core.Transaction, error) {
	f := listScope(userID)
	if filter.AccountID != "" {
		f.Set("account_id", eq(filter.AccountID))
	}
	if filter.CategoryID != "" {
		f.Set("category_id", eq(filter.CategoryID))
	}
	if filter.Type != "" {
		f.Set("type", eq(filter.Type))
	}
	if !filter.From.IsZero() {
		f.Add("txn_date", "gte."+filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		f.Add("txn_date", "lte."+filter.To.Format(time.RFC3339))
	}
	f.Set("order", "txn_date.desc")

	var rows []supaTransaction
	if err := s.selectInto(ctx, "transactions", f, &rows); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *SupabaseStore) UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (*core.Transaction, error) {
	changes := map[string]any{}
	if p.AccountID != nil {
		changes["account_id"] = *p.AccountID
	}
	if p.CategoryID != nil {
		if *p.CategoryID == "" {
			changes["category_id"] = nil
		} else {
			changes["category_id"] = *p.CategoryID
		}
	}
	if p.Amount != nil {
		changes["amount"] = *p.Amount
	}
	if p.Type != nil {
		changes["type"] = *p.Type
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Date != nil {
		changes["txn_date"] = p.Date.Format(time.RFC3339)
	}
	if err := s.patchRow(ctx, "transactions", userScope(userID, id), changes); err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, userID, id)
}

func (s *SupabaseStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "transactions", userScope(userID, id))
}

// --- Budgets ---

func (s *SupabaseStore) CreateBudget(ctx context.Context, b *core.Budget) error {
	return s.insert(ctx, "budgets", supaBudget{ID: b.ID, UserID: b.UserID, CategoryID: b.CategoryID,
		Amount: b.Amount, Period: b.Period, StartDate: b.StartDate})
}

func (s *SupabaseStore) GetBudget(ctx context.Context, userID, id string) (*core.Budget, error) {
	var rows []supaBudget
	if err := s.selectInto(ctx, "budgets", userScope(userID, id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	b := rows[0].toCore()
	return &b, nil
}

func (s *SupabaseStore) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	var rows []supaBudget
	if err := s.selectInto(ctx, "budgets", listScope(userID), &rows); err != nil {
		return nil, err
	}
	out := make([]core.Budget, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *SupabaseStore) UpdateBudget(ctx context.Context, userID, id string, p core.BudgetPatch) (*core.Budget, error) {
	changes := map[string]any{}
	if p.CategoryID != nil {
		changes["category_id"] = *p.CategoryID
	}
	if p.Amount != nil {
		changes["amount"] = *p.Amount
	}
	if p.Period != nil {
		changes["period"] = *p.Period
	}
	if p.StartDate != nil {
		changes["start_date"] = p.StartDate.Format(time.RFC3339)
	}
	if err := s.patchRow(ctx, "budgets", userScope(userID, id), changes); err != nil {
		return nil, err
	}
	return s.GetBudget(ctx, userID, id)
}

func (s *SupabaseStore) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "budgets", userScope(userID, id))
}

// --- Goals ---

func (s *SupabaseStore) CreateGoal(ctx context.Context, g *core.Goal) error {
	return s.insert(ctx, "goals", supaGoal{ID: g.ID, UserID: g.UserID, Name: g.Name,
		TargetAmount: g.TargetAmount, CurrentAmount: g.CurrentAmount, TargetDate: g.TargetDate, CreatedAt: g.CreatedAt})
}

func (s *SupabaseStore) GetGoal(ctx context.Context, userID, id string) (*core.Goal, error) {
	var rows []supaGoal
	if err := s.selectInto(ctx, "goals", userScope(userID, id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	g := rows[0].toCore()
	return &g, nil
}

func (s *SupabaseStore) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	var rows []supaGoal
	if err := s.selectInto(ctx, "goals", listScope(userID), &rows); err != nil {
		return nil, err
	}
	out := make([]core.Goal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *SupabaseStore) UpdateGoal(ctx context.Context, userID, id string, p core.GoalPatch) (*core.Goal, error) {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.TargetAmount != nil {
		changes["target_amount"] = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		changes["current_amount"] = *p.CurrentAmount
	}
	if p.TargetDate != nil {
		changes["target_date"] = p.TargetDate.Format(time.RFC3339)
	}
	if err := s.patchRow(ctx, "goals", userScope(userID, id), changes); err != nil {
		return nil, err
	}
	return s.GetGoal(ctx, userID, id)
}

func (s *SupabaseStore) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "goals", userScope(userID, id))
}

// --- Bills ---

func (s *SupabaseStore) CreateBill(ctx context.Context, b *core.Bill) error {
	return s.insert(ctx, "bills", supaBill{ID: b.ID, UserID: b.UserID, Name: b.Name, Amount: b.Amount,
		DueDay: b.DueDay, Frequency: b.Frequency, AutoPay: b.AutoPay, LastPaid: b.LastPaid})
}

func (s *SupabaseStore) GetBill(ctx context.Context, userID, id string) (*core.Bill, error) {
	var rows []supaBill
	if err := s.selectInto(ctx, "bills", userScope(userID, id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	b := rows[0].toCore()
	return &b, nil
}

func (s *SupabaseStore) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	var rows []supaBill
	if err := s.selectInto(ctx, "bills", listScope(userID), &rows); err != nil {
		return nil, err
	}
	out := make([]core.Bill, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *SupabaseStore) UpdateBill(ctx context.Context, userID, id string, p core.BillPatch) (*core.Bill, error) {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.Amount != nil {
		changes["amount"] = *p.Amount
	}
	if p.DueDay != nil {
		changes["due_day"] = *p.DueDay
	}
	if p.Frequency != nil {
		changes["frequency"] = *p.Frequency
	}
	if p.AutoPay != nil {
		changes["auto_pay"] = *p.AutoPay
	}
	if p.LastPaid != nil {
		changes["last_paid"] = p.LastPaid.Format(time.RFC3339)
	}
	if err := s.patchRow(ctx, "bills", userScope(userID, id), changes); err != nil {
		return nil, err
	}
	return s.GetBill(ctx, userID, id)
}

func (s *SupabaseStore) DeleteBill(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "bills", userScope(userID, id))
}

// --- Products ---

func (s *SupabaseStore) CreateProduct(ctx context.Context, p *core.Product) error {
	return s.insert(ctx, "products", supaProduct{ID: p.ID, UserID: p.UserID, Name: p.Name,
		Barcode: p.Barcode, Price: p.Price, Store: p.Store, LastPurchased: p.LastPurchased})
}

func (s *SupabaseStore) GetProduct(ctx context.Context, userID, id string) (*core.Product, error) {
	var rows []supaProduct
	if err := s.selectInto(ctx, "products", userScope(userID, id), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNotFound
	}
	p := rows[0].toCore()
	return &p, nil
}

func (s *SupabaseStore) ListProducts(ctx context.Context, userID string) ([]core.Product, error) {
	var rows []supaProduct
	if err := s.selectInto(ctx, "products", listScope(userID), &rows); err != nil {
		return nil, err
	}
	out := make([]core.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *SupabaseStore) UpdateProduct(ctx context.Context, userID, id string, patch core.ProductPatch) (*core.Product, error) {
	changes := map[string]any{}
	if patch.Name != nil {
		changes["name"] = *patch.Name
	}
	if patch.Barcode != nil {
		changes["barcode"] = *patch.Barcode
	}
	if patch.Price != nil {
		changes["price"] = *patch.Price
	}
	if patch.Store != nil {
		changes["store"] = *patch.Store
	}
	if patch.LastPurchased != nil {
		changes["last_purchased"] = patch.LastPurchased.Format(time.RFC3339)
	}
	if err := s.patchRow(ctx, "products", userScope(userID, id), changes); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, userID, id)
}

func (s *SupabaseStore) DeleteProduct(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "products", userScope(userID, id))
}
