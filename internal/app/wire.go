package app

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-auth/internal/auth"
	"github.com/odyssey-erp/odyssey-auth/internal/observability"
	"github.com/odyssey-erp/odyssey-auth/internal/session"
	"github.com/odyssey-erp/odyssey-auth/internal/token"
)

// AuthDeps is the wired auth kernel shared by the server and the worker.
type AuthDeps struct {
	Service *auth.Service
	Tokens  *token.Service
	Mailbox *session.Mailbox
}

// Close stops the session mailbox.
func (d *AuthDeps) Close() {
	if d != nil && d.Mailbox != nil {
		d.Mailbox.Close()
	}
}

// NewAuthDeps wires the repository, session cache and token service into an
// auth.Service according to cfg.
func NewAuthDeps(cfg *Config, logger *slog.Logger, db auth.Querier, client redis.Cmdable, metrics *observability.Metrics) (*AuthDeps, error) {
	policy, err := cfg.LoginPolicy()
	if err != nil {
		return nil, err
	}
	mailbox := session.NewMailbox(session.NewRedisStore(client), session.MailboxConfig{
		Buffer:  cfg.MailboxBuffer,
		Logger:  logger,
		Observe: metrics.ObserveCacheOp,
	})
	tokens := token.New(cfg.JWTSecret, logger)
	service := auth.NewService(auth.NewRepository(db), mailbox, tokens, auth.Options{
		KeyPrefix:   cfg.RedisKey,
		TTL:         cfg.SessionTTL,
		LoginPolicy: policy,
		Logger:      logger,
		OnLogin:     metrics.ObserveLogin,
	})
	return &AuthDeps{Service: service, Tokens: tokens, Mailbox: mailbox}, nil
}
