package provider

import (
	"context"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func init() {
	register(&supabaseStrategy{})
}

// supabaseStrategy talks to Supabase through its PostgREST endpoint rather
// than the postgres wire protocol, so hosted projects work without exposing
// the database port.
type supabaseStrategy struct{}

func (s *supabaseStrategy) Provider() core.Provider { return core.ProviderSupabase }

func (s *supabaseStrategy) Validate(creds core.Credentials) (errs, warnings []string) {
	switch {
	case creds.SupabaseURL == "":
		errs = append(errs, "project URL is required")
	default:
		u, err := url.Parse(creds.SupabaseURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			errs = append(errs, "project URL must be an https:// address")
		} else if !strings.HasSuffix(u.Host, ".supabase.co") && !strings.HasSuffix(u.Host, ".supabase.in") {
			errs = append(errs, "project URL does not look like a Supabase project (expected https://<ref>.supabase.co)")
		}
	}
	if creds.SupabaseAnonKey == "" {
		errs = append(errs, "anon key is required")
	}
	if creds.AutoCreateTables && creds.SupabaseServiceKey == "" {
		errs = append(errs, "a service role key is required to create tables automatically")
	}
	return errs, nil
}

func (s *supabaseStrategy) Probe(ctx context.Context, creds core.Credentials) core.ConnectionTestResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	store := storage.NewSupabaseStore(creds)
	defer store.Close()

	missing, err := store.MissingTables(ctx)
	if err != nil {
		return failedProbe(err)
	}
	if missing == nil {
		missing = []string{}
	}

	host := creds.SupabaseURL
	if u, err := url.Parse(creds.SupabaseURL); err == nil {
		host = u.Host
	}
	return core.ConnectionTestResult{
		Success:   true,
		LatencyMs: time.Since(start).Milliseconds(),
		Details: &core.ConnectionDetails{
			Host:          host,
			Database:      "postgres",
			Version:       "PostgREST",
			MissingTables: missing,
		},
	}
}

func (s *supabaseStrategy) Open(ctx context.Context, creds core.Credentials) (core.Store, error) {
	store := storage.NewSupabaseStore(creds)
	// Reject unreachable projects and bad keys up front; schema provisioning
	// itself stays lazy inside the store.
	if _, err := store.MissingTables(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
