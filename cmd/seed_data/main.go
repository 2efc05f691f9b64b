// seed_data fills a local SQLite database with demo data for development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/provider"
	"fintrack/internal/service"
)

func main() {
	file := flag.String("file", "fintrack.db", "SQLite database file to seed")
	username := flag.String("user", "demo", "demo username")
	password := flag.String("pass", "demo1234", "demo password")
	flag.Parse()

	strategy, err := provider.For(core.ProviderSQLite)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	store, err := strategy.Open(ctx, core.Credentials{FilePath: *file})
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	user, err := store.GetUserByUsername(ctx, *username)
	if err != nil {
		u, err := service.NewUser(*username, *username+"@example.com", *password, "Demo", "User")
		if err != nil {
			log.Fatal(err)
		}
		if err := store.CreateUser(ctx, u); err != nil {
			log.Fatal(err)
		}
		user = u
		fmt.Printf("Created user %q\n", user.Username)
	} else {
		fmt.Printf("User %q already exists\n", user.Username)
	}

	now := time.Now().UTC()

	checking := core.Account{
		ID: uuid.NewString(), UserID: user.ID, Name: "Checking",
		Type: "checking", Balance: decimal.NewFromFloat(2450.75), Currency: "USD", CreatedAt: now,
	}
	savings := core.Account{
		ID: uuid.NewString(), UserID: user.ID, Name: "Savings",
		Type: "savings", Balance: decimal.NewFromFloat(10200.00), Currency: "USD", CreatedAt: now,
	}
	for _, a := range []core.Account{checking, savings} {
		if err := store.CreateAccount(ctx, &a); err != nil {
			log.Fatalf("seed account: %v", err)
		}
	}

	groceries := core.Category{ID: uuid.NewString(), UserID: user.ID, Name: "Groceries", Type: "expense", Color: "#4caf50", Icon: "cart"}
	salary := core.Category{ID: uuid.NewString(), UserID: user.ID, Name: "Salary", Type: "income", Color: "#2196f3", Icon: "wallet"}
	for _, c := range []core.Category{groceries, salary} {
		if err := store.CreateCategory(ctx, &c); err != nil {
			log.Fatalf("seed category: %v", err)
		}
	}

	txns := []core.Transaction{
		{ID: uuid.NewString(), UserID: user.ID, AccountID: checking.ID, CategoryID: salary.ID,
			Amount: decimal.NewFromFloat(3200), Type: "income", Description: "Monthly salary",
			Date: now.AddDate(0, 0, -14), CreatedAt: now},
		{ID: uuid.NewString(), UserID: user.ID, AccountID: checking.ID, CategoryID: groceries.ID,
			Amount: decimal.NewFromFloat(86.42), Type: "expense", Description: "Weekly groceries",
			Date: now.AddDate(0, 0, -3), CreatedAt: now},
	}
	for i := range txns {
		if err := store.CreateTransaction(ctx, &txns[i]); err != nil {
			log.Fatalf("seed transaction: %v", err)
		}
	}

	budget := core.Budget{
		ID: uuid.NewString(), UserID: user.ID, CategoryID: groceries.ID,
		Amount: decimal.NewFromFloat(400), Period: "monthly", StartDate: now.AddDate(0, 0, -now.Day()+1),
	}
	if err := store.CreateBudget(ctx, &budget); err != nil {
		log.Fatalf("seed budget: %v", err)
	}

	target := now.AddDate(1, 0, 0)
	goal := core.Goal{
		ID: uuid.NewString(), UserID: user.ID, Name: "Emergency fund",
		TargetAmount: decimal.NewFromFloat(15000), CurrentAmount: decimal.NewFromFloat(10200),
		TargetDate: &target, CreatedAt: now,
	}
	if err := store.CreateGoal(ctx, &goal); err != nil {
		log.Fatalf("seed goal: %v", err)
	}

	bill := core.Bill{
		ID: uuid.NewString(), UserID: user.ID, Name: "Rent",
		Amount: decimal.NewFromFloat(1450), DueDay: 1, Frequency: "monthly", AutoPay: true,
	}
	if err := store.CreateBill(ctx, &bill); err != nil {
		log.Fatalf("seed bill: %v", err)
	}

	product := core.Product{
		ID: uuid.NewString(), UserID: user.ID, Name: "Oat milk",
		Barcode: "7350033741923", Price: decimal.NewFromFloat(3.49), Store: "Corner Market",
	}
	if err := store.CreateProduct(ctx, &product); err != nil {
		log.Fatalf("seed product: %v", err)
	}

	fmt.Printf("Seeded demo data into %s\n", *file)
}
