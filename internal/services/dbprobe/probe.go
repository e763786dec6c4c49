// Package dbprobe checks that the configured database accepts connections.
package dbprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/connstr"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// Service defines the interface for readiness probes.
type Service interface {
	Ping(ctx context.Context) error
}

// Conn is the part of *pgx.Conn used by the probe.
type Conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer opens a connection.
type Dialer func(ctx context.Context, connString string) (Conn, error)

// Impl implements the dbprobe Service interface.
type Impl struct {
	connString string
	dial       Dialer
	timeout    time.Duration
	logger     zerolog.Logger
}

// New creates a probe that dials with pgx.
func New(logger zerolog.Logger, connString string) *Impl {
	return NewWithDialer(logger, connString, func(ctx context.Context, s string) (Conn, error) {
		return pgx.Connect(ctx, s)
	})
}

// NewWithDialer creates a probe with a custom dialer (for testing).
func NewWithDialer(logger zerolog.Logger, connString string, dial Dialer) *Impl {
	return &Impl{
		connString: connString,
		dial:       dial,
		timeout:    DefaultTimeout,
		logger:     logger,
	}
}

// Ping connects to the configured database and pings it.
func (p *Impl) Ping(ctx context.Context) error {
	if p.connString == "" {
		return models.ErrConnectionNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	target := connstr.Identity(p.connString)
	conn, err := p.dial(ctx, p.connString)
	if err != nil {
		p.logger.Debug().Err(err).Str("target", target).Msg("readiness dial failed")
		return fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	defer func() {
		if err := conn.Close(context.Background()); err != nil {
			p.logger.Debug().Err(err).Msg("failed to close probe connection")
		}
	}()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", target, err)
	}
	return nil
}
