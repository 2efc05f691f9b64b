// Package api exposes the HTTP surface: the setup wizard, session auth,
// database config administration, and per-user entity CRUD.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/service"
)

// Deps bundles everything the router needs.
type Deps struct {
	Registry    *service.Registry
	Auth        *service.AuthService
	Initializer *service.Initializer
	SessionKey  string
}

// NewRouter wires the full route tree. Login gets a tight limiter; the rest
// of the API shares a looser one.
func NewRouter(deps Deps) http.Handler {
	sessions := newSessionStore(deps.SessionKey)
	authHandler := NewAuthHandler(deps.Auth, sessions)
	initHandler := NewInitHandler(deps.Initializer)
	dbHandler := NewDatabaseHandler(deps.Registry)
	entityHandler := NewEntityHandler(deps.Registry)

	loginLimiter := NewRateLimiter(5, 3)
	apiLimiter := NewRateLimiter(60, 10)

	r := chi.NewRouter()
	r.Use(LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		// First-run wizard, open by design; Initialize itself refuses to run twice.
		r.Route("/initialization", func(r chi.Router) {
			r.Get("/status", initHandler.Status)
			r.Get("/deployment-context", initHandler.Context)
			r.Post("/test-database", initHandler.TestDatabase)
			r.Post("/", initHandler.Initialize)
		})

		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Middleware)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(apiLimiter.Middleware)
			r.Use(RequireAuth(sessions))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Put("/user/profile", authHandler.UpdateProfile)

			r.Route("/admin/databases", func(r chi.Router) {
				r.Get("/", dbHandler.List)
				r.Post("/", dbHandler.Create)
				r.Get("/migrations", dbHandler.Migrations)
				r.Post("/{id}/test", dbHandler.Test)
				r.Post("/{id}/activate", dbHandler.Activate)
				r.Delete("/{id}", dbHandler.Delete)
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", entityHandler.ListAccounts)
				r.Post("/", entityHandler.CreateAccount)
				r.Get("/{id}", entityHandler.GetAccount)
				r.Put("/{id}", entityHandler.UpdateAccount)
				r.Delete("/{id}", entityHandler.DeleteAccount)
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", entityHandler.ListCategories)
				r.Post("/", entityHandler.CreateCategory)
				r.Get("/{id}", entityHandler.GetCategory)
				r.Put("/{id}", entityHandler.UpdateCategory)
				r.Delete("/{id}", entityHandler.DeleteCategory)
			})
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", entityHandler.ListTransactions)
				r.Post("/", entityHandler.CreateTransaction)
				r.Get("/{id}", entityHandler.GetTransaction)
				r.Put("/{id}", entityHandler.UpdateTransaction)
				r.Delete("/{id}", entityHandler.DeleteTransaction)
			})
			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", entityHandler.ListBudgets)
				r.Post("/", entityHandler.CreateBudget)
				r.Get("/{id}", entityHandler.GetBudget)
				r.Put("/{id}", entityHandler.UpdateBudget)
				r.Delete("/{id}", entityHandler.DeleteBudget)
			})
			r.Route("/goals", func(r chi.Router) {
				r.Get("/", entityHandler.ListGoals)
				r.Post("/", entityHandler.CreateGoal)
				r.Get("/{id}", entityHandler.GetGoal)
				r.Put("/{id}", entityHandler.UpdateGoal)
				r.Delete("/{id}", entityHandler.DeleteGoal)
			})
			r.Route("/bills", func(r chi.Router) {
				r.Get("/", entityHandler.ListBills)
				r.Post("/", entityHandler.CreateBill)
				r.Get("/{id}", entityHandler.GetBill)
				r.Put("/{id}", entityHandler.UpdateBill)
				r.Delete("/{id}", entityHandler.DeleteBill)
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", entityHandler.ListProducts)
				r.Post("/", entityHandler.CreateProduct)
				r.Get("/{id}", entityHandler.GetProduct)
				r.Put("/{id}", entityHandler.UpdateProduct)
				r.Delete("/{id}", entityHandler.DeleteProduct)
			})
		})
	})

	return r
}
