// Package provider maps each supported database provider to a Strategy that
// knows how to validate credentials, probe connectivity, and open a working
// store. Strategies register themselves from init so adding a provider is a
// single new file.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

// probeTimeout bounds a single connection test end to end.
const probeTimeout = 10 * time.Second

// Strategy is the per-provider behavior behind the config validator, the
// connection probe, and adapter construction.
type Strategy interface {
	Provider() core.Provider

	// Validate returns every problem with the credentials, not just the
	// first, plus advisory warnings that do not block saving.
	Validate(creds core.Credentials) (errs, warnings []string)

	// Probe opens a short-lived connection, measures latency, and inspects the
	// schema. It never mutates the target and never returns raw driver errors
	// in the result.
	Probe(ctx context.Context, creds core.Credentials) core.ConnectionTestResult

	// Open builds a ready-to-use store, provisioning missing tables where the
	// provider allows it.
	Open(ctx context.Context, creds core.Credentials) (core.Store, error)
}

var strategies = map[core.Provider]Strategy{}

func register(s Strategy) {
	strategies[s.Provider()] = s
}

// For returns the strategy for p.
func For(p core.Provider) (Strategy, error) {
	s, ok := strategies[p]
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q", p)
	}
	return s, nil
}

// Supported lists the registered providers in stable order.
func Supported() []core.Provider {
	out := make([]core.Provider, 0, len(strategies))
	for p := range strategies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks provider-shaped credentials. All problems are accumulated.
// Config naming is enforced where configs are saved, not here.
func Validate(cfg core.DatabaseConfig) core.ValidationResult {
	s, err := For(cfg.Provider)
	if err != nil {
		return core.ValidationResult{Errors: []string{err.Error()}}
	}
	errs, warnings := s.Validate(cfg.Credentials)
	if errs == nil {
		errs = []string{}
	}
	return core.ValidationResult{IsValid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// classifyErr turns driver and transport errors into a short message a user
// can act on. Raw driver text stays out of API responses.
func classifyErr(err error) string {
	var netErr net.Error
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return "connection timed out: check the host, port, and any firewall rules"
	case strings.Contains(msg, "password authentication failed"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "authentication failed"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "rejected the api key"):
		return "authentication failed: check the username and password"
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "network is unreachable"),
		errors.As(err, &netErr):
		return "could not reach the database server: check the host and port"
	case strings.Contains(msg, "does not exist") && strings.Contains(msg, "database"),
		strings.Contains(msg, "unknown database"):
		return "the named database does not exist on the server"
	default:
		return "connection failed: verify the credentials and try again"
	}
}

func failedProbe(err error) core.ConnectionTestResult {
	return core.ConnectionTestResult{Success: false, Error: classifyErr(err)}
}
