package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// The entity methods all follow the same shape: creates insert the full row,
// reads and deletes are scoped by user_id, updates build a SET clause from the
// patch's non-nil fields and re-read the row.

// --- Accounts ---

func (s *SQLStore) CreateAccount(ctx context.Context, a *core.Account) error {
	_, err := s.exec(ctx,
		`INSERT INTO accounts (id, user_id, name, type, balance, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Type, a.Balance.String(), a.Currency, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *SQLStore) GetAccount(ctx context.Context, userID, id string) (*core.Account, error) {
	var a core.Account
	var balance string
	err := s.queryRow(ctx,
		`SELECT id, user_id, name, type, balance, currency, created_at
		 FROM accounts WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &balance, &a.Currency, &a.CreatedAt)
	if err != nil {
		return nil, mapScanErr(err)
	}
	if a.Balance, err = scanDecimal(balance); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLStore) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, name, type, balance, currency, created_at
		 FROM accounts WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var balance string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &balance, &a.Currency, &a.CreatedAt); err != nil {
			return nil, err
		}
		if a.Balance, err = scanDecimal(balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLStore) UpdateAccount(ctx context.Context, userID, id string, p core.AccountPatch) (*core.Account, error) {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Type != nil {
		sets, args = append(sets, "type = ?"), append(args, *p.Type)
	}
	if p.Balance != nil {
		sets, args = append(sets, "balance = ?"), append(args, p.Balance.String())
	}
	if p.Currency != nil {
		sets, args = append(sets, "currency = ?"), append(args, *p.Currency)
	}
	if err := s.applyPatch(ctx, "accounts", sets, args, userID, id); err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, userID, id)
}

func (s *SQLStore) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "accounts", userID, id)
}

// --- Categories ---

func (s *SQLStore) CreateCategory(ctx context.Context, c *core.Category) error {
	_, err := s.exec(ctx,
		`INSERT INTO categories (id, user_id, name, type, color, icon) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Type, c.Color, c.Icon)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *SQLStore) GetCategory(ctx context.Context, userID, id string) (*core.Category, error) {
	var c core.Category
	err := s.queryRow(ctx,
		`SELECT id, user_id, name, type, color, icon FROM categories WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &c.Icon)
	if err != nil {
		return nil, mapScanErr(err)
	}
	return &c, nil
}

func (s *SQLStore) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, name, type, color, icon FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &c.Icon); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *SQLStore) UpdateCategory(ctx context.Context, userID, id string, p core.CategoryPatch) (*core.Category, error) {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Type != nil {
		sets, args = append(sets, "type = ?"), append(args, *p.Type)
	}
	if p.Color != nil {
		sets, args = append(sets, "color = ?"), append(args, *p.Color)
	}
	if p.Icon != nil {
		sets, args = append(sets, "icon = ?"), append(args, *p.Icon)
	}
	if err := s.applyPatch(ctx, "categories", sets, args, userID, id); err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, userID, id)
}

func (s *SQLStore) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "categories", userID, id)
}

// --- Transactions ---

func (s *SQLStore) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	_, err := s.exec(ctx,
		`INSERT INTO transactions (id, user_id, account_id, category_id, amount, type, description, txn_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, nullStr(t.CategoryID), t.Amount.String(), t.Type, t.Description, t.Date, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func scanTransaction(scan func(dest ...any) error) (*core.Transaction, error) {
	var t core.Transaction
	var categoryID sql.NullString
	var amount string
	err := scan(&t.ID, &t.UserID, &t.AccountID, &categoryID, &amount, &t.Type, &t.Description, &t.Date, &t.CreatedAt)
	if err != nil {
		return nil, mapScanErr(err)
	}
	t.CategoryID = categoryID.String
	if t.Amount, err = scanDecimal(amount); err != nil {
		return nil, err
	}
	return &t, nil
}

const txnCols = `id, user_id, account_id, category_id, amount, type, description, txn_date, created_at`

func (s *SQLStore) GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	row := s.queryRow(ctx, `SELECT `+txnCols+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row.Scan)
}

func (s *SQLStore) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + txnCols + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		query += ` AND txn_date >= ?`
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		query += ` AND txn_date <= ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY txn_date DESC`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func (s *SQLStore) UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (*core.Transaction, error) {
	sets := []string{}
	args := []any{}
	if p.AccountID != nil {
		sets, args = append(sets, "account_id = ?"), append(args, *p.AccountID)
	}
	if p.CategoryID != nil {
		sets, args = append(sets, "category_id = ?"), append(args, nullStr(*p.CategoryID))
	}
	if p.Amount != nil {
		sets, args = append(sets, "amount = ?"), append(args, p.Amount.String())
	}
	if p.Type != nil {
		sets, args = append(sets, "type = ?"), append(args, *p.Type)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if p.Date != nil {
		sets, args = append(sets, "txn_date = ?"), append(args, *p.Date)
	}
	if err := s.applyPatch(ctx, "transactions", sets, args, userID, id); err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, userID, id)
}

func (s *SQLStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "transactions", userID, id)
}

// --- Budgets ---

func (s *SQLStore) CreateBudget(ctx context.Context, b *core.Budget) error {
	_, err := s.exec(ctx,
		`INSERT INTO budgets (id, user_id, category_id, amount, period, start_date) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CategoryID, b.Amount.String(), b.Period, b.StartDate)
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (s *SQLStore) GetBudget(ctx context.Context, userID, id string) (*core.Budget, error) {
	var b core.Budget
	var amount string
	err := s.queryRow(ctx,
		`SELECT id, user_id, category_id, amount, period, start_date FROM budgets WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &b.Period, &b.StartDate)
	if err != nil {
		return nil, mapScanErr(err)
	}
	if b.Amount, err = scanDecimal(amount); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *SQLStore) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, category_id, amount, period, start_date FROM budgets WHERE user_id = ? ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		var amount string
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &b.Period, &b.StartDate); err != nil {
			return nil, err
		}
		if b.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *SQLStore) UpdateBudget(ctx context.Context, userID, id string, p core.BudgetPatch) (*core.Budget, error) {
	sets := []string{}
	args := []any{}
	if p.CategoryID != nil {
		sets, args = append(sets, "category_id = ?"), append(args, *p.CategoryID)
	}
	if p.Amount != nil {
		sets, args = append(sets, "amount = ?"), append(args, p.Amount.String())
	}
	if p.Period != nil {
		sets, args = append(sets, "period = ?"), append(args, *p.Period)
	}
	if p.StartDate != nil {
		sets, args = append(sets, "start_date = ?"), append(args, *p.StartDate)
	}
	if err := s.applyPatch(ctx, "budgets", sets, args, userID, id); err != nil {
		return nil, err
	}
	return s.GetBudget(ctx, userID, id)
}

func (s *SQLStore) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "budgets", userID, id)
}

// --- Goals ---

func (s *SQLStore) CreateGoal(ctx context.Context, g *core.Goal) error {
	_, err := s.exec(ctx,
		`INSERT INTO goals (id, user_id, name, target_amount, current_amount, target_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), nullTimeOf(g.TargetDate), g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func scanGoal(scan func(dest ...any) error) (*core.Goal, error) {
	var g core.Goal
	var target, current string
	var targetDate sql.NullTime
	err := scan(&g.ID, &g.UserID, &g.Name, &target, &current, &targetDate, &g.CreatedAt)
	if err != nil {
		return nil, mapScanErr(err)
	}
	g.TargetDate = timePtr(targetDate)
	if g.TargetAmount, err = scanDecimal(target); err != nil {
		return nil, err
	}
	if g.CurrentAmount, err = scanDecimal(current); err != nil {
		return nil, err
	}
	return &g, nil
}

const goalCols = `id, user_id, name, target_amount, current_amount, target_date, created_at`

func (s *SQLStore) GetGoal(ctx context.Context, userID, id string) (*core.Goal, error) {
	row := s.queryRow(ctx, `SELECT `+goalCols+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row.Scan)
}

func (s *SQLStore) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.query(ctx, `SELECT `+goalCols+` FROM goals WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *SQLStore) UpdateGoal(ctx context.Context, userID, id string, p core.GoalPatch) (*core.Goal, error) {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.TargetAmount != nil {
		sets, args = append(sets, "target_amount = ?"), append(args, p.TargetAmount.String())
	}
	if p.CurrentAmount != nil {
		sets, args = append(sets, "current_amount = ?"), append(args, p.CurrentAmount.String())
	}
	if p.TargetDate != nil {
		sets, args = append(sets, "target_date = ?"), append(args, *p.TargetDate)
	}
	if err := s.applyPatch(ctx, "goals", sets, args, userID, id); err != nil {
		return nil, err
	}
	return s.GetGoal(ctx, userID, id)
}

func (s *SQLStore) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "goals", userID, id)
}

// --- Bills ---

func (s *SQLStore) CreateBill(ctx context.Context, b *core.Bill) error {
	_, err := s.exec(ctx,
		`INSERT INTO bills (id, user_id, name, amount, due_day, frequency, auto_pay, last_paid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Amount.String(), b.DueDay, b.Frequency, b.AutoPay, nullTimeOf(b.LastPaid))
	if err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	return nil
}

func scanBill(scan func(dest ...any) error) (*core.Bill, error) {
	var b core.Bill
	var amount string
	var lastPaid sql.NullTime
	err := scan(&b.ID, &b.UserID, &b.Name, &amount, &b.DueDay, &b.Frequency, &b.AutoPay, &lastPaid)
	if err != nil {
		return nil, mapScanErr(err)
	}
	b.LastPaid = timePtr(lastPaid)
	if b.Amount, err = scanDecimal(amount); err != nil {
		return nil, err
	}
	return &b, nil
}

const billCols = `id, user_id, name, amount, due_day, frequency, auto_pay, last_paid`

func (s *SQLStore) GetBill(ctx context.Context, userID, id string) (*core.Bill, error) {
	row := s.queryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = ? AND user_id = ?`, id, userID)
	return scanBill(row.Scan)
}

func (s *SQLStore) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	rows, err := s.query(ctx, `SELECT `+billCols+` FROM bills WHERE user_id = ? ORDER BY due_day`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows.Scan)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (s *SQLStore) UpdateBill(ctx context.Context, userID, id string, p core.BillPatch) (*core.Bill, error) {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Amount != nil {
		sets, args = append(sets, "amount = ?"), append(args, p.Amount.String())
	}
	if p.DueDay != nil {
		sets, args = append(sets, "due_day = ?"), append(args, *p.DueDay)
	}
	if p.Frequency != nil {
		sets, args = append(sets, "frequency = ?"), append(args, *p.Frequency)
	}
	if p.AutoPay != nil {
		sets, args = append(sets, "auto_pay = ?"), append(args, *p.AutoPay)
	}
	if p.LastPaid != nil {
		sets, args = append(sets, "last_paid = ?"), append(args, *p.LastPaid)
	}
	if err := s.applyPatch(ctx, "bills", sets, args, userID, id); err != nil {
		return nil, err
	}
	return s.GetBill(ctx, userID, id)
}

func (s *SQLStore) DeleteBill(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "bills", userID, id)
}

// --- Products ---

func (s *SQLStore) CreateProduct(ctx context.Context, p *core.Product) error {
	_, err := s.exec(ctx,
		`INSERT INTO products (id, user_id, name, barcode, price, store, last_purchased)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Barcode, p.Price.String(), p.Store, nullTimeOf(p.LastPurchased))
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func scanProduct(scan func(dest ...any) error) (*core.Product, error) {
	var p core.Product
	var price string
	var lastPurchased sql.NullTime
	err := scan(&p.ID, &p.UserID, &p.Name, &p.Barcode, &price, &p.Store, &lastPurchased)
	if err != nil {
		return nil, mapScanErr(err)
	}
	p.LastPurchased = timePtr(lastPurchased)
	if p.Price, err = scanDecimal(price); err != nil {
		return nil, err
	}
	return &p, nil
}

const productCols = `id, user_id, name, barcode, price, store, last_purchased`

func (s *SQLStore) GetProduct(ctx context.Context, userID, id string) (*core.Product, error) {
	row := s.queryRow(ctx, `SELECT `+productCols+` FROM products WHERE id = ? AND user_id = ?`, id, userID)
	return scanProduct(row.Scan)
}

func (s *SQLStore) ListProducts(ctx context.Context, userID string) ([]core.Product, error) {
	rows, err := s.query(ctx, `SELECT `+productCols+` FROM products WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *SQLStore) UpdateProduct(ctx context.Context, userID, id string, p core.ProductPatch) (*core.Product, error) {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *p.Name)
	}
	if p.Barcode != nil {
		sets, args = append(sets, "barcode = ?"), append(args, *p.Barcode)
	}
	if p.Price != nil {
		sets, args = append(sets, "price = ?"), append(args, p.Price.String())
	}
	if p.Store != nil {
		sets, args = append(sets, "store = ?"), append(args, *p.Store)
	}
	if p.LastPurchased != nil {
		sets, args = append(sets, "last_purchased = ?"), append(args, *p.LastPurchased)
	}
	if err := s.applyPatch(ctx, "products", sets, args, userID, id); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, userID, id)
}

func (s *SQLStore) DeleteProduct(ctx context.Context, userID, id string) error {
	return s.deleteRow(ctx, "products", userID, id)
}

// --- shared helpers ---

// applyPatch runs the accumulated SET clause against one user-owned row.
// An empty patch is a no-op so the caller's re-read still runs.
func (s *SQLStore) applyPatch(ctx context.Context, table string, sets []string, args []any, userID, id string) error {
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, userID)
	res, err := s.exec(ctx,
		`UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *SQLStore) deleteRow(ctx context.Context, table, userID, id string) error {
	res, err := s.exec(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
