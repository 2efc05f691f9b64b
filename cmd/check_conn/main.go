// check_conn validates and probes database credentials from the command
// line, without touching the server's saved configs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"fintrack/internal/core"
	"fintrack/internal/provider"
)

func main() {
	providerName := flag.String("provider", "sqlite", "provider (postgresql, supabase, sqlite, neon, mysql, planetscale)")
	connStr := flag.String("conn", "", "connection string (postgres/neon)")
	host := flag.String("host", "", "host")
	port := flag.Int("port", 0, "port")
	database := flag.String("db", "", "database name")
	username := flag.String("user", "", "username")
	password := flag.String("pass", "", "password")
	sslMode := flag.String("ssl", "", "ssl mode (postgres/neon)")
	filePath := flag.String("file", "", "file path (sqlite)")
	supaURL := flag.String("supabase-url", "", "Supabase project URL")
	supaKey := flag.String("supabase-key", "", "Supabase anon key")
	flag.Parse()

	creds := core.Credentials{
		ConnectionString: *connStr,
		Host:             *host,
		Port:             *port,
		Database:         *database,
		Username:         *username,
		Password:         *password,
		SSLMode:          *sslMode,
		FilePath:         *filePath,
		SupabaseURL:      *supaURL,
		SupabaseAnonKey:  *supaKey,
	}

	cfg := core.DatabaseConfig{Name: "check", Provider: core.Provider(*providerName), Credentials: creds}
	if result := provider.Validate(cfg); !result.IsValid {
		fmt.Println("Configuration is invalid:")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}

	strategy, err := provider.For(cfg.Provider)
	if err != nil {
		log.Fatal(err)
	}

	result := strategy.Probe(context.Background(), creds)
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if !result.Success {
		os.Exit(1)
	}
}
