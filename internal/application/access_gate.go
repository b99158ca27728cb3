package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
)

// AccessGate authorizes administrative requests against one process-wide
// shared secret. It keeps no session state; every call is checked afresh.
type AccessGate struct {
	secret string
	logger *slog.Logger
}

// NewAccessGate constructs a gate for the configured secret, which may be
// plain text or an argon2id PHC string. An empty secret is accepted here and
// reported as ErrConfig on every Authorize call.
func NewAccessGate(secret string) *AccessGate {
	return NewAccessGateWithLogger(secret, nil)
}

// NewAccessGateWithLogger constructs an AccessGate with a specified logger.
func NewAccessGateWithLogger(secret string, logger *slog.Logger) *AccessGate {
	return &AccessGate{secret: secret, logger: defaultLogger(logger)}
}

// Configured reports whether a secret is available.
func (g *AccessGate) Configured() bool {
	return g != nil && g.secret != ""
}

// Authorize returns nil when presented equals the configured secret,
// ErrUnauthorized when it does not, and ErrConfig when no secret is configured.
func (g *AccessGate) Authorize(ctx context.Context, presented string) error {
	if !g.Configured() {
		serviceLogger(ctx, g.loggerOrNil(), "AccessGate", "Authorize").
			ErrorContext(ctx, "admin secret is not configured", "error_kind", "config")
		return fmt.Errorf("%w: admin secret is not set", ErrConfig)
	}
	if presented == "" {
		return ErrUnauthorized
	}

	if IsHashedSecret(g.secret) {
		err := VerifySecret(g.secret, presented)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrUnauthorized):
			return ErrUnauthorized
		default:
			serviceLogger(ctx, g.logger, "AccessGate", "Authorize").
				ErrorContext(ctx, "configured admin secret hash is unusable", "error", err, "error_kind", "config")
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}

	if subtle.ConstantTimeCompare([]byte(g.secret), []byte(presented)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func (g *AccessGate) loggerOrNil() *slog.Logger {
	if g == nil {
		return nil
	}
	return g.logger
}
