package storage

import (
	"context"
	"sync"

	"fintrack/internal/core"
)

// MemoryStore is the fallback adapter used before any database has been
// configured (and in tests). Everything lives in maps behind one RWMutex;
// values are copied in and out so callers never share memory with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]core.User
	accounts     map[string]core.Account
	categories   map[string]core.Category
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	goals        map[string]core.Goal
	bills        map[string]core.Bill
	products     map[string]core.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]core.User),
		accounts:     make(map[string]core.Account),
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		goals:        make(map[string]core.Goal),
		bills:        make(map[string]core.Bill),
		products:     make(map[string]core.Product),
	}
}

func (s *MemoryStore) Provider() core.Provider { return core.ProviderMemory }

func (s *MemoryStore) Close() error { return nil }

// --- Users ---

func (s *MemoryStore) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, p core.UserPatch) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	// Empty or absent password keeps the stored hash.
	if p.Password != nil && *p.Password != "" {
		u.PasswordHash = *p.Password
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	s.users[id] = u
	return &u, nil
}

// --- Accounts ---

func (s *MemoryStore) CreateAccount(_ context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = *a
	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, userID, id string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, core.ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateAccount(_ context.Context, userID, id string, p core.AccountPatch) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, core.ErrNotFound
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	s.accounts[id] = a
	return &a, nil
}

func (s *MemoryStore) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// --- Categories ---

func (s *MemoryStore) CreateCategory(_ context.Context, c *core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetCategory(_ context.Context, userID, id string) (*core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, core.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, userID, id string, p core.CategoryPatch) (*core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, core.ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	s.categories[id] = c
	return &c, nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// --- Transactions ---

func (s *MemoryStore) CreateTransaction(_ context.Context, t *core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = *t
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, userID, id string) (*core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, core.ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryStore) UpdateTransaction(_ context.Context, userID, id string, p core.TransactionPatch) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, core.ErrNotFound
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	s.transactions[id] = t
	return &t, nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// --- Budgets ---

func (s *MemoryStore) CreateBudget(_ context.Context, b *core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = *b
	return nil
}

func (s *MemoryStore) GetBudget(_ context.Context, userID, id string) (*core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return nil, core.ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateBudget(_ context.Context, userID, id string, p core.BudgetPatch) (*core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return nil, core.ErrNotFound
	}
	if p.CategoryID != nil {
		b.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	s.budgets[id] = b
	return &b, nil
}

func (s *MemoryStore) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

// --- Goals ---

func (s *MemoryStore) CreateGoal(_ context.Context, g *core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = *g
	return nil
}

func (s *MemoryStore) GetGoal(_ context.Context, userID, id string) (*core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return nil, core.ErrNotFound
	}
	return &g, nil
}

func (s *MemoryStore) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateGoal(_ context.Context, userID, id string, p core.GoalPatch) (*core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return nil, core.ErrNotFound
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.TargetDate != nil {
		g.TargetDate = p.TargetDate
	}
	s.goals[id] = g
	return &g, nil
}

func (s *MemoryStore) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

// --- Bills ---

func (s *MemoryStore) CreateBill(_ context.Context, b *core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills[b.ID] = *b
	return nil
}

func (s *MemoryStore) GetBill(_ context.Context, userID, id string) (*core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return nil, core.ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) ListBills(_ context.Context, userID string) ([]core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Bill
	for _, b := range s.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateBill(_ context.Context, userID, id string, p core.BillPatch) (*core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return nil, core.ErrNotFound
	}
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.DueDay != nil {
		b.DueDay = *p.DueDay
	}
	if p.Frequency != nil {
		b.Frequency = *p.Frequency
	}
	if p.AutoPay != nil {
		b.AutoPay = *p.AutoPay
	}
	if p.LastPaid != nil {
		b.LastPaid = p.LastPaid
	}
	s.bills[id] = b
	return &b, nil
}

func (s *MemoryStore) DeleteBill(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok || b.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.bills, id)
	return nil
}

// --- Products ---

func (s *MemoryStore) CreateProduct(_ context.Context, p *core.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetProduct(_ context.Context, userID, id string) (*core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok || p.UserID != userID {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListProducts(_ context.Context, userID string) ([]core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Product
	for _, p := range s.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, userID, id string, patch core.ProductPatch) (*core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.UserID != userID {
		return nil, core.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Barcode != nil {
		p.Barcode = *patch.Barcode
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Store != nil {
		p.Store = *patch.Store
	}
	if patch.LastPurchased != nil {
		p.LastPurchased = patch.LastPurchased
	}
	s.products[id] = p
	return &p, nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.products, id)
	return nil
}
