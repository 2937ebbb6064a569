// Package service orchestrates the identity core: login, logout,
// session checks, federated login, and the password recovery flow. It
// is the only caller of the ledger, issuer, recovery store, and
// federation adapter, and every failure it returns carries a stable
// domain kind.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/ledger"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/mailer"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/provider"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/recovery"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/token"
)

// Session is the result of any successful authentication.
type Session struct {
	Token  string `json:"accessToken"`
	UserID int64  `json:"userId,string"`
}

// ProviderSession extends Session with first-login information.
type ProviderSession struct {
	Session
	IsNewAccount bool `json:"isNewAccount"`
}

// AuthService encapsulates the authentication flows.
type AuthService struct {
	ledger     *ledger.Ledger
	issuer     *token.Issuer
	codes      *recovery.Store
	federation *provider.Federation
	states     provider.StateStore
	mail       mailer.Mailer
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(
	led *ledger.Ledger,
	issuer *token.Issuer,
	codes *recovery.Store,
	federation *provider.Federation,
	states provider.StateStore,
	mail mailer.Mailer,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		ledger:     led,
		issuer:     issuer,
		codes:      codes,
		federation: federation,
		states:     states,
		mail:       mail,
		logger:     logger,
		tracer:     otel.Tracer("github.com/ZLoganZ/SocialNetwork-Server/internal/service"),
	}
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
