package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-auth/internal/permission"
	"github.com/odyssey-erp/odyssey-auth/internal/session"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
	"github.com/odyssey-erp/odyssey-auth/internal/token"
)

// Login outcomes reported through Options.OnLogin.
const (
	LoginResultCreated  = "created"
	LoginResultReissued = "reissued"
	LoginResultRejected = "rejected"
	LoginResultError    = "error"
)

const maskQueryTimeout = 10 * time.Second

// Options configures a Service.
type Options struct {
	// KeyPrefix is the cache namespace prepended to every user name.
	KeyPrefix   string
	TTL         time.Duration
	LoginPolicy LoginPolicy
	Logger      *slog.Logger
	Now         func() time.Time
	OnLogin     func(result string)
}

// Service wraps login, logout and permission refresh.
type Service struct {
	repo   Repository
	cache  session.Cache
	tokens *token.Service
	opts   Options
	logger *slog.Logger
	masks  singleflight.Group
}

// NewService constructs a new Service.
func NewService(repo Repository, cache session.Cache, tokens *token.Service, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = session.DefaultTTL
	}
	if opts.LoginPolicy == "" {
		opts.LoginPolicy = PolicyTrustCache
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OnLogin == nil {
		opts.OnLogin = func(string) {}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, tokens: tokens, opts: opts, logger: logger}
}

// Login authenticates name/password and returns a signed token. A cached
// session is re-issued as is under PolicyTrustCache; otherwise a new session
// is created with a freshly computed mask.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	signed, result, err := s.login(ctx, name, password)
	if err != nil {
		if errors.Is(err, shared.ErrInternal) {
			result = LoginResultError
		} else {
			result = LoginResultRejected
		}
	}
	s.opts.OnLogin(result)
	return signed, err
}

func (s *Service) login(ctx context.Context, name, password string) (string, string, error) {
	key := session.Key(s.opts.KeyPrefix, name)
	cached, err := s.cache.Exists(ctx, key)
	if err != nil {
		return "", "", s.internal("login: exists", err)
	}

	if cached {
		rec, err := s.cache.Get(ctx, key)
		if err != nil {
			return "", "", s.internal("login: get", err)
		}
		// A nil record means the session expired after Exists; fall
		// through and create a new one.
		if rec != nil {
			signed, err := s.reissue(ctx, key, rec, password)
			return signed, LoginResultReissued, err
		}
	}

	creds, err := s.credentials(ctx, name)
	if err != nil {
		return "", "", err
	}
	if !passwordMatches(creds.Password, password) {
		return "", "", shared.ErrPassWordError
	}
	mask, err := s.sharedMask(ctx, creds.ID)
	if err != nil {
		return "", "", err
	}
	rec := session.Record{
		UserID:        creds.ID,
		UserName:      name,
		Auth:          mask,
		LastLoginTime: s.opts.Now().Unix(),
	}
	if err := s.cache.Set(ctx, key, rec, s.opts.TTL); err != nil {
		return "", "", s.internal("login: set", err)
	}
	s.logger.Info("session created", slog.String("user", name), slog.Uint64("auth", mask))
	signed, err := s.sign(rec)
	return signed, LoginResultCreated, err
}

func (s *Service) reissue(ctx context.Context, key string, rec *session.Record, password string) (string, error) {
	creds, err := s.credentials(ctx, rec.UserName)
	if err != nil {
		return "", err
	}
	if !passwordMatches(creds.Password, password) {
		return "", shared.ErrPassWordError
	}
	if s.opts.LoginPolicy == PolicyAlwaysRefresh {
		mask, err := s.freshMask(ctx, creds.ID)
		if err != nil {
			return "", err
		}
		rec.Auth = mask
		if err := s.cache.Update(ctx, key, *rec); err != nil {
			return "", s.sessionErr("login: update", err)
		}
	}
	return s.sign(*rec)
}

// Logout deletes the cached session of userID. caller is the record carried
// by the caller's token and must belong to userID. The token itself stays
// verifiable.
func (s *Service) Logout(ctx context.Context, userID int32, caller *session.Record) error {
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}
	if caller == nil {
		return shared.ErrUnauthorized
	}
	if caller.UserID != userID {
		return shared.ErrUserIsWrong
	}
	if err := s.cache.Delete(ctx, session.Key(s.opts.KeyPrefix, caller.UserName)); err != nil {
		return s.internal("logout: delete", err)
	}
	s.logger.Info("session deleted", slog.String("user", caller.UserName))
	return nil
}

// RefreshPermission recomputes the mask of userID from the store and writes
// it into the cached session without extending its TTL.
func (s *Service) RefreshPermission(ctx context.Context, userID int32) (uint64, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return 0, err
	}
	mask, err := s.freshMask(ctx, userID)
	if err != nil {
		return 0, err
	}
	key := session.Key(s.opts.KeyPrefix, user.Name)
	rec, err := s.cache.Get(ctx, key)
	if err != nil {
		return 0, s.internal("refresh: get", err)
	}
	if rec == nil {
		return 0, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, key)
	}
	rec.Auth = mask
	if err := s.cache.Update(ctx, key, *rec); err != nil {
		return 0, s.sessionErr("refresh: update", err)
	}
	return mask, nil
}

// AccessMap lists the active permission definitions.
func (s *Service) AccessMap(ctx context.Context) ([]PermissionDefinition, error) {
	defs, err := s.repo.ListAccess(ctx)
	if err != nil {
		return nil, s.internal("access map", err)
	}
	return defs, nil
}

// freshMask reads the ordinals of userID straight from the store. Refresh
// paths use it so a result never predates the call.
func (s *Service) freshMask(ctx context.Context, userID int32) (uint64, error) {
	ordinals, err := s.repo.AccessOrdinals(ctx, userID)
	if err != nil {
		return 0, s.internal("access ordinals", err)
	}
	return permission.MaskFromOrdinals(ordinals), nil
}

// sharedMask collapses concurrent new-session mask reads for one user into a
// single query. The query is detached from any one caller's cancellation;
// each caller stops waiting when its own ctx ends.
func (s *Service) sharedMask(ctx context.Context, userID int32) (uint64, error) {
	ch := s.masks.DoChan(strconv.FormatInt(int64(userID), 10), func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), maskQueryTimeout)
		defer cancel()
		ordinals, err := s.repo.AccessOrdinals(qctx, userID)
		if err != nil {
			return nil, err
		}
		return permission.MaskFromOrdinals(ordinals), nil
	})
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: auth: access ordinals: %w", shared.ErrInternal, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, s.internal("access ordinals", res.Err)
		}
		return res.Val.(uint64), nil
	}
}

func (s *Service) credentials(ctx context.Context, name string) (*Credentials, error) {
	creds, err := s.repo.FindCredentialsByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotExist
		}
		return nil, s.internal("find credentials", err)
	}
	return creds, nil
}

func (s *Service) user(ctx context.Context, id int32) (*User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotExist
		}
		return nil, s.internal("find user", err)
	}
	return user, nil
}

func (s *Service) sign(rec session.Record) (string, error) {
	signed, err := s.tokens.Sign(rec)
	if err != nil {
		return "", s.internal("sign", err)
	}
	return signed, nil
}

func (s *Service) sessionErr(op string, err error) error {
	if errors.Is(err, session.ErrSessionNotFound) {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, op)
	}
	return s.internal(op, err)
}

func (s *Service) internal(op string, err error) error {
	s.logger.Error("auth "+op, slog.Any("error", err))
	return fmt.Errorf("%w: auth: %s: %w", shared.ErrInternal, op, err)
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
