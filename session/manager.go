// Package session owns the token lifecycle: issue, validate, rotate and revoke.
//
// Validation checks run cheapest first: signature and expiry, then the local
// blacklist, then the durable liveness record. The durable store is always
// consulted before a token is accepted; the local blacklist only short-circuits
// refusals.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/blacklist"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/revocation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// deleteBatch caps the number of keys per DEL during bulk invalidation
	deleteBatch = 500
)

// Manager token lifecycle manager. Safe for concurrent use.
type Manager struct {
	cfg     Config
	codec   *jwt.Codec
	store   revocation.Store
	keys    revocation.Keys
	access  *blacklist.Cache
	refresh *blacklist.Cache
	metrics *Metrics
	logger  *logger.CtxZapLogger
	now     func() time.Time
	newID   func() string
}

// Option customises a Manager
type Option func(*Manager)

// WithClock overrides the time source; keep it in step with the codec's clock
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides jti generation (uuid v4 by default)
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithKeys sets the durable key namespace
func WithKeys(keys revocation.Keys) Option {
	return func(m *Manager) { m.keys = keys }
}

// WithBlacklists shares local blacklists between managers of one process.
// Each blacklist owns a cleanup goroutine that never exits.
func WithBlacklists(access, refresh *blacklist.Cache) Option {
	return func(m *Manager) { m.access, m.refresh = access, refresh }
}

// NewManager wires the codec, the durable store and two local blacklists,
// built from cfg unless WithBlacklists supplies them
func NewManager(cfg Config, codec *jwt.Codec, store revocation.Store, log *logger.CtxZapLogger, opts ...Option) (*Manager, error) {
	if codec == nil || store == nil {
		return nil, fmt.Errorf("session: codec and store are required")
	}
	if log == nil {
		return nil, fmt.Errorf("session: logger cannot be nil")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session: invalid config: %w", err)
	}

	m := &Manager{
		cfg:     cfg,
		codec:   codec,
		store:   store,
		metrics: NewMetrics(),
		logger:  log,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.access == nil {
		m.access = blacklist.NewFromConfig(cfg.AccessBlacklist)
	}
	if m.refresh == nil {
		m.refresh = blacklist.NewFromConfig(cfg.RefreshBlacklist)
	}
	return m, nil
}

// Shutdown drops both local blacklists. The caches' cleanup goroutines keep
// running; golang-lru v2.0.7 has no way to stop them.
func (m *Manager) Shutdown() {
	m.access.Purge()
	m.refresh.Purge()
}

// Config returns the effective configuration
func (m *Manager) Config() Config {
	return m.cfg
}

// Issue signs a fresh access/refresh pair for subject and records both
func (m *Manager) Issue(ctx context.Context, subject Subject) (*TokenPair, error) {
	pair, err := m.issue(ctx, subject, 0)
	if err != nil {
		return nil, err
	}

	m.logger.InfoCtx(ctx, "token pair issued",
		zap.Int64("user_id", subject.ID),
		zap.String("username", subject.Name))
	return pair, nil
}

// issue signs both tokens, then writes liveness, usage and index entries in one transaction
func (m *Manager) issue(ctx context.Context, subject Subject, depth int) (*TokenPair, error) {
	now := m.now()
	access := jwt.NewClaims(subject.ID, subject.Name, subject.Roles, m.newID(), now, m.cfg.AccessTTL)
	refresh := jwt.NewClaims(subject.ID, subject.Name, subject.Roles, m.newID(), now, m.cfg.RefreshTTL)
	refresh.ChainDepth = depth

	accessToken, err := m.codec.Sign(access)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := m.codec.Sign(refresh)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	accessSet := m.keys.AccessSessions(subject.ID)
	refreshSet := m.keys.RefreshSessions(subject.ID)

	err = m.store.Atomic(ctx, func(w revocation.Writer) {
		w.PutWithTTL(m.keys.Liveness(access.JTI()), subject.Name, m.cfg.AccessTTL)
		w.PutWithTTL(m.keys.Liveness(refresh.JTI()), subject.Name, m.cfg.RefreshTTL)
		w.PutWithTTL(m.keys.Usage(refresh.JTI()), "0", m.cfg.RefreshTTL)
		w.SetAdd(accessSet, access.JTI())
		w.SetAdd(refreshSet, refresh.JTI())
		// the newest refresh token always outlives every older member
		w.Expire(accessSet, m.cfg.RefreshTTL)
		w.Expire(refreshSet, m.cfg.RefreshTTL)
	})
	if err != nil {
		m.storeFailure(ctx, "issue", err)
		return nil, err
	}

	m.metrics.RecordIssued(ctx, tokenTypeAccess)
	m.metrics.RecordIssued(ctx, tokenTypeRefresh)

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  access.Expiry(),
		RefreshExpiresAt: refresh.Expiry(),
		ChainDepth:       depth,
	}, nil
}

// Validate returns the claims of a live access token.
// Fails with ErrInvalidToken or revocation.ErrStoreUnavailable only.
func (m *Manager) Validate(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	start := time.Now()
	claims, reason, err := m.checkAccess(ctx, accessToken)
	m.metrics.RecordValidation(ctx, reason, time.Since(start))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) checkAccess(ctx context.Context, token string) (*jwt.Claims, string, error) {
	claims, err := m.codec.Verify(token)
	if err != nil {
		reason := codecReason(err)
		return nil, reason, m.refuse(ctx, tokenTypeAccess, reason, nil, err)
	}

	if m.access.Contains(token) {
		return nil, reasonRevoked, m.refuse(ctx, tokenTypeAccess, reasonRevoked, claims, nil)
	}

	live, err := m.store.Exists(ctx, m.keys.Liveness(claims.JTI()))
	if err != nil {
		m.storeFailure(ctx, "validate", err)
		return nil, reasonStoreUnavailable, err
	}
	if !live {
		return nil, reasonRevoked, m.refuse(ctx, tokenTypeAccess, reasonRevoked, claims, nil)
	}

	// 只有 refresh token 带 usage 计数
	isRefresh, err := m.store.Exists(ctx, m.keys.Usage(claims.JTI()))
	if err != nil {
		m.storeFailure(ctx, "validate", err)
		return nil, reasonStoreUnavailable, err
	}
	if isRefresh {
		return nil, reasonWrongType, m.refuse(ctx, tokenTypeAccess, reasonWrongType, claims, nil)
	}

	return claims, resultOK, nil
}

// Rotate exchanges a refresh token for a new pair one level deeper in the chain
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return m.RotateAs(ctx, refreshToken, nil)
}

// RotateAs is Rotate with the new pair's subject produced by resolve.
// A nil resolver reuses the subject carried by the refresh token.
//
// The old token is not revoked; its usage counter is incremented only after
// the new pair is durably recorded. A failed increment is logged and the new
// pair is still returned.
func (m *Manager) RotateAs(ctx context.Context, refreshToken string, resolve SubjectResolver) (*TokenPair, error) {
	claims, _, reason, err := m.checkRefresh(ctx, refreshToken)
	if err != nil {
		m.metrics.RecordRotation(ctx, reason)
		return nil, err
	}

	subject := SubjectFromClaims(claims)
	if resolve != nil {
		if subject, err = resolve(ctx, claims); err != nil {
			m.metrics.RecordRotation(ctx, "resolver_refused")
			return nil, err
		}
	}

	pair, err := m.issue(ctx, subject, claims.ChainDepth+1)
	if err != nil {
		m.metrics.RecordRotation(ctx, reasonStoreUnavailable)
		return nil, err
	}

	ttl := claims.Remaining(m.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	used, err := m.store.Increment(ctx, m.keys.Usage(claims.JTI()), ttl)
	if err != nil {
		m.storeFailure(ctx, "rotate_increment", err)
		m.logger.WarnCtx(ctx, "usage counter not incremented, token may be exchanged once more than its quota",
			zap.String("jti", claims.JTI()),
			zap.Int64("user_id", claims.UserID))
	}

	m.metrics.RecordRotation(ctx, resultOK)
	m.logger.InfoCtx(ctx, "refresh token rotated",
		zap.Int64("user_id", subject.ID),
		zap.String("jti", claims.JTI()),
		zap.Int("chain_depth", pair.ChainDepth),
		zap.Int64("usage", used))

	return pair, nil
}

// RemainingRefreshUsage reports how many more exchanges refreshToken allows
func (m *Manager) RemainingRefreshUsage(ctx context.Context, refreshToken string) (int, error) {
	_, used, _, err := m.checkRefresh(ctx, refreshToken)
	if err != nil {
		return 0, err
	}

	remaining := int64(m.cfg.MaxRefreshUsage) - used
	if remaining < 0 {
		return 0, nil
	}
	return int(remaining), nil
}

// checkRefresh runs every rotation precondition without side effects.
// The usage counter doubles as the refresh marker: a live jti without one is an access token.
func (m *Manager) checkRefresh(ctx context.Context, token string) (*jwt.Claims, int64, string, error) {
	claims, err := m.codec.Verify(token)
	if err != nil {
		reason := codecReason(err)
		return nil, 0, reason, m.refuse(ctx, tokenTypeRefresh, reason, nil, err)
	}

	if m.refresh.Contains(token) {
		return nil, 0, reasonRevoked, m.refuse(ctx, tokenTypeRefresh, reasonRevoked, claims, nil)
	}

	live, err := m.store.Exists(ctx, m.keys.Liveness(claims.JTI()))
	if err != nil {
		m.storeFailure(ctx, "refresh_liveness", err)
		return nil, 0, reasonStoreUnavailable, err
	}
	if !live {
		return nil, 0, reasonRevoked, m.refuse(ctx, tokenTypeRefresh, reasonRevoked, claims, nil)
	}

	used, found, err := m.store.GetInt(ctx, m.keys.Usage(claims.JTI()))
	if err != nil {
		m.storeFailure(ctx, "refresh_usage", err)
		return nil, 0, reasonStoreUnavailable, err
	}
	if !found {
		return nil, 0, reasonWrongType, m.refuse(ctx, tokenTypeRefresh, reasonWrongType, claims, nil)
	}

	if claims.ChainDepth+1 >= m.cfg.ChainLimit {
		return nil, 0, reasonChainExceeded, m.refuse(ctx, tokenTypeRefresh, reasonChainExceeded, claims, nil)
	}
	if used >= int64(m.cfg.MaxRefreshUsage) {
		return nil, 0, reasonUsageExceeded, m.refuse(ctx, tokenTypeRefresh, reasonUsageExceeded, claims, nil)
	}

	return claims, used, resultOK, nil
}

// Invalidate revokes whichever tokens are presented (empty means absent).
// Cleanup is best-effort and never fails the caller.
func (m *Manager) Invalidate(ctx context.Context, accessToken, refreshToken string) {
	if accessToken != "" {
		m.invalidateOne(ctx, accessToken, tokenTypeAccess)
	}
	if refreshToken != "" {
		m.invalidateOne(ctx, refreshToken, tokenTypeRefresh)
	}
}

func (m *Manager) invalidateOne(ctx context.Context, token, tokenType string) {
	cache := m.access
	if tokenType == tokenTypeRefresh {
		cache = m.refresh
	}
	// 本地黑名单不依赖解码结果
	cache.Put(token)

	// Decode skips the expiry check so expired tokens are still cleaned up
	claims, err := m.codec.Decode(token)
	if err != nil {
		m.logger.WarnCtx(ctx, "token presented for revocation cannot be decoded",
			zap.String("type", tokenType),
			zap.Error(err))
		return
	}

	set := m.keys.AccessSessions(claims.UserID)
	keys := []string{m.keys.Liveness(claims.JTI())}
	if tokenType == tokenTypeRefresh {
		set = m.keys.RefreshSessions(claims.UserID)
		keys = append(keys, m.keys.Usage(claims.JTI()))
	}

	if err := m.store.Delete(ctx, keys...); err != nil {
		m.storeFailure(ctx, "invalidate", err)
	}
	if err := m.store.SetRemove(ctx, set, claims.JTI()); err != nil {
		m.storeFailure(ctx, "invalidate_index", err)
	}

	m.metrics.RecordRevoked(ctx, tokenType, 1)
	m.logger.InfoCtx(ctx, "token revoked",
		zap.String("type", tokenType),
		zap.String("jti", claims.JTI()),
		zap.Int64("user_id", claims.UserID))
}

// InvalidateAll revokes every live token of userID. Member records go first,
// the index sets last, so an interrupted call can simply be repeated.
func (m *Manager) InvalidateAll(ctx context.Context, userID int64) error {
	accessSet := m.keys.AccessSessions(userID)
	refreshSet := m.keys.RefreshSessions(userID)

	accessJTIs, err := m.store.SetMembers(ctx, accessSet)
	if err != nil {
		m.storeFailure(ctx, "invalidate_all", err)
		return err
	}
	refreshJTIs, err := m.store.SetMembers(ctx, refreshSet)
	if err != nil {
		m.storeFailure(ctx, "invalidate_all", err)
		return err
	}

	keys := make([]string, 0, len(accessJTIs)+2*len(refreshJTIs))
	for _, jti := range accessJTIs {
		keys = append(keys, m.keys.Liveness(jti))
	}
	for _, jti := range refreshJTIs {
		keys = append(keys, m.keys.Liveness(jti), m.keys.Usage(jti))
	}

	for start := 0; start < len(keys); start += deleteBatch {
		end := min(start+deleteBatch, len(keys))
		if err := m.store.Delete(ctx, keys[start:end]...); err != nil {
			m.storeFailure(ctx, "invalidate_all", err)
			return err
		}
	}
	if err := m.store.Delete(ctx, accessSet, refreshSet); err != nil {
		m.storeFailure(ctx, "invalidate_all", err)
		return err
	}

	m.metrics.RecordRevoked(ctx, tokenTypeAccess, len(accessJTIs))
	m.metrics.RecordRevoked(ctx, tokenTypeRefresh, len(refreshJTIs))
	m.logger.InfoCtx(ctx, "all sessions revoked",
		zap.Int64("user_id", userID),
		zap.Int("access_tokens", len(accessJTIs)),
		zap.Int("refresh_tokens", len(refreshJTIs)))
	return nil
}

// refuse logs the internal reason and returns the collapsed error for tokenType
func (m *Manager) refuse(ctx context.Context, tokenType, reason string, claims *jwt.Claims, cause error) error {
	fields := []zap.Field{
		zap.String("type", tokenType),
		zap.String("reason", reason),
	}
	if claims != nil {
		fields = append(fields, zap.String("jti", claims.JTI()), zap.Int64("user_id", claims.UserID))
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	m.logger.WarnCtx(ctx, "token refused", fields...)

	if tokenType == tokenTypeRefresh {
		return ErrInvalidRefreshToken
	}
	return ErrInvalidToken
}

// storeFailure counts a store incident; RedisStore already logged the cause
func (m *Manager) storeFailure(ctx context.Context, op string, err error) {
	m.metrics.RecordStoreFailure(ctx, op)
	if !errors.Is(err, revocation.ErrStoreUnavailable) {
		m.logger.ErrorCtx(ctx, "revocation store failure", zap.String("op", op), zap.Error(err))
	}
}
