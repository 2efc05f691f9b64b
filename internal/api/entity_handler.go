package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/service"
)

// EntityHandler serves the per-user CRUD endpoints. Every operation resolves
// the storage adapter through the registry at request time, so an activation
// mid-flight affects the next request, not this one.
type EntityHandler struct {
	registry *service.Registry
	validate *validator.Validate
}

func NewEntityHandler(registry *service.Registry) *EntityHandler {
	return &EntityHandler{
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *EntityHandler) store() core.Store { return h.registry.Current() }

// --- Accounts ---

type accountCreate struct {
	Name     string          `json:"name" validate:"required"`
	Type     string          `json:"type" validate:"required,oneof=checking savings credit cash investment"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency" validate:"required,len=3"`
}

func (h *EntityHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store().ListAccounts(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *EntityHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := core.Account{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		Name:      req.Name,
		Type:      req.Type,
		Balance:   req.Balance,
		Currency:  req.Currency,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store().CreateAccount(r.Context(), &account); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *EntityHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.store().GetAccount(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *EntityHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var patch core.AccountPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := h.store().UpdateAccount(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *EntityHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.store().DeleteAccount(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Categories ---

type categoryCreate struct {
	Name  string `json:"name" validate:"required"`
	Type  string `json:"type" validate:"required,oneof=income expense"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
	Icon  string `json:"icon"`
}

func (h *EntityHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store().ListCategories(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *EntityHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category := core.Category{
		ID:     uuid.NewString(),
		UserID: userID(r),
		Name:   req.Name,
		Type:   req.Type,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	if err := h.store().CreateCategory(r.Context(), &category); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *EntityHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.store().GetCategory(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *EntityHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch core.CategoryPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	category, err := h.store().UpdateCategory(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *EntityHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.store().DeleteCategory(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Transactions ---

type transactionCreate struct {
	AccountID   string          `json:"accountId" validate:"required"`
	CategoryID  string          `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=income expense transfer"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date" validate:"required"`
}

func (h *EntityHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.TransactionFilter{
		AccountID:  q.Get("accountId"),
		CategoryID: q.Get("categoryId"),
		Type:       q.Get("type"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
			return
		}
		filter.To = t
	}

	txns, err := h.store().ListTransactions(r.Context(), userID(r), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *EntityHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID(r),
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
		Date:        req.Date,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.store().CreateTransaction(r.Context(), &txn); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (h *EntityHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.store().GetTransaction(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *EntityHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch core.TransactionPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	txn, err := h.store().UpdateTransaction(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *EntityHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.store().DeleteTransaction(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Budgets ---

type budgetCreate struct {
	CategoryID string          `json:"categoryId" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Period     string          `json:"period" validate:"required,oneof=weekly monthly yearly"`
	StartDate  time.Time       `json:"startDate" validate:"required"`
}

func (h *EntityHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.store().ListBudgets(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *EntityHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget := core.Budget{
		ID:         uuid.NewString(),
		UserID:     userID(r),
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  req.StartDate,
	}
	if err := h.store().CreateBudget(r.Context(), &budget); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

func (h *EntityHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := h.store().GetBudget(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *EntityHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var patch core.BudgetPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	budget, err := h.store().UpdateBudget(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *EntityHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.store().DeleteBudget(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Goals ---

type goalCreate struct {
	Name          string          `json:"name" validate:"required"`
	TargetAmount  decimal.Decimal `json:"targetAmount" validate:"required"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    *time.Time      `json:"targetDate"`
}

func (h *EntityHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.store().ListGoals(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *EntityHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal := core.Goal{
		ID:            uuid.NewString(),
		UserID:        userID(r),
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    req.TargetDate,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.store().CreateGoal(r.Context(), &goal); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *EntityHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.store().GetGoal(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *EntityHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var patch core.GoalPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	goal, err := h.store().UpdateGoal(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *EntityHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.store().DeleteGoal(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Bills ---

type billCreate struct {
	Name      string          `json:"name" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	DueDay    int             `json:"dueDay" validate:"required,min=1,max=31"`
	Frequency string          `json:"frequency" validate:"required,oneof=weekly monthly yearly"`
	AutoPay   bool            `json:"autoPay"`
}

func (h *EntityHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.store().ListBills(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if bills == nil {
		bills = []core.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *EntityHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req billCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill := core.Bill{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		Name:      req.Name,
		Amount:    req.Amount,
		DueDay:    req.DueDay,
		Frequency: req.Frequency,
		AutoPay:   req.AutoPay,
	}
	if err := h.store().CreateBill(r.Context(), &bill); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (h *EntityHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.store().GetBill(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *EntityHandler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	var patch core.BillPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	bill, err := h.store().UpdateBill(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *EntityHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := h.store().DeleteBill(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Products ---

type productCreate struct {
	Name    string          `json:"name" validate:"required"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price" validate:"required"`
	Store   string          `json:"store"`
}

func (h *EntityHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store().ListProducts(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if products == nil {
		products = []core.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *EntityHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productCreate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := core.Product{
		ID:      uuid.NewString(),
		UserID:  userID(r),
		Name:    req.Name,
		Barcode: req.Barcode,
		Price:   req.Price,
		Store:   req.Store,
	}
	if err := h.store().CreateProduct(r.Context(), &product); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *EntityHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.store().GetProduct(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *EntityHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch core.ProductPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product, err := h.store().UpdateProduct(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *EntityHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.store().DeleteProduct(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
