package auth

import (
	"context"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/session"
	"go.uber.org/zap"
)

// Sessions is the token lifecycle the account flows drive
type Sessions interface {
	Issue(ctx context.Context, subject session.Subject) (*session.TokenPair, error)
	RotateAs(ctx context.Context, refreshToken string, resolve session.SubjectResolver) (*session.TokenPair, error)
	RemainingRefreshUsage(ctx context.Context, refreshToken string) (int, error)
	Invalidate(ctx context.Context, accessToken, refreshToken string)
	InvalidateAll(ctx context.Context, userID int64) error
}

// LoginResult a token pair plus the account it belongs to
type LoginResult struct {
	*session.TokenPair
	UserID   int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Type     UserType `json:"type"`
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Service account flows: credentials in, sessions out
type Service struct {
	users     UserRepository
	passwords *PasswordService
	sessions  Sessions
	attempts  LoginAttemptStore // nil disables lockout
	cfg       LoginAttemptConfig
	metrics   *AuthMetrics
	logger    *logger.CtxZapLogger
}

func NewService(users UserRepository, passwords *PasswordService, sessions Sessions, attempts LoginAttemptStore, cfg LoginAttemptConfig, metrics *AuthMetrics, log *logger.CtxZapLogger) *Service {
	if !cfg.Enabled {
		attempts = nil
	}
	return &Service{
		users:     users,
		passwords: passwords,
		sessions:  sessions,
		attempts:  attempts,
		cfg:       cfg,
		metrics:   metrics,
		logger:    log,
	}
}

// Register creates a normal active account
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := s.passwords.ValidatePassword(ctx, in.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Type:         UserTypeNormal,
		Status:       UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.RecordAccountAction(ctx, "register")
	s.logger.InfoCtx(ctx, "user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks credentials and issues a fresh session
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	start := time.Now()
	result, err := s.login(ctx, username, password)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		s.logger.WarnCtx(ctx, "login failed", zap.String("username", username), zap.Error(err))
	}
	s.metrics.RecordLogin(ctx, outcome, time.Since(start))
	return result, err
}

func (s *Service) login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s.attempts != nil {
		n, err := s.attempts.GetAttempts(ctx, username)
		if err == nil && n >= s.cfg.MaxAttempts {
			return nil, ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !s.passwords.CheckPassword(password, user.PasswordHash) {
		if s.attempts != nil {
			if err := s.attempts.IncrementAttempts(ctx, username, s.cfg.LockoutDuration); err != nil {
				s.logger.WarnCtx(ctx, "failed to record login attempt", zap.Error(err))
			}
		}
		return nil, ErrInvalidCredentials
	}

	if user.IsBanned() {
		return nil, ErrAccountBanned
	}

	if s.attempts != nil {
		_ = s.attempts.ResetAttempts(ctx, username)
	}

	pair, err := s.sessions.Issue(ctx, subjectOf(user))
	if err != nil {
		return nil, err
	}

	s.logger.InfoCtx(ctx, "login successful", zap.Int64("user_id", user.ID))
	return resultOf(pair, user), nil
}

// Refresh exchanges a refresh token. The account is reloaded so roles follow
// the current user type; a banned owner loses every session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	var user *User
	pair, err := s.sessions.RotateAs(ctx, refreshToken, func(ctx context.Context, claims *jwt.Claims) (session.Subject, error) {
		u, err := s.users.FindByID(ctx, claims.UserID)
		if err != nil {
			return session.Subject{}, err
		}
		if u.IsBanned() {
			if err := s.sessions.InvalidateAll(ctx, u.ID); err != nil {
				s.logger.ErrorCtx(ctx, "failed to revoke sessions of banned user", zap.Int64("user_id", u.ID), zap.Error(err))
			}
			return session.Subject{}, ErrAccountBanned
		}
		user = u
		return subjectOf(u), nil
	})
	if err != nil {
		return nil, err
	}
	return resultOf(pair, user), nil
}

// Logout revokes what the client presents; it never fails
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) {
	s.sessions.Invalidate(ctx, accessToken, refreshToken)
}

// RefreshUsage how many more exchanges refreshToken allows
func (s *Service) RefreshUsage(ctx context.Context, refreshToken string) (int, error) {
	return s.sessions.RemainingRefreshUsage(ctx, refreshToken)
}

// Profile returns the account of userID
func (s *Service) Profile(ctx context.Context, userID int64) (*User, error) {
	return s.users.FindByID(ctx, userID)
}

// BanUser marks the account banned and revokes every session it holds
func (s *Service) BanUser(ctx context.Context, userID int64) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.UpdateStatus(ctx, userID, UserStatusBanned); err != nil {
		return err
	}
	if err := s.sessions.InvalidateAll(ctx, userID); err != nil {
		return err
	}

	s.metrics.RecordAccountAction(ctx, "ban")
	s.logger.InfoCtx(ctx, "user banned", zap.Int64("user_id", userID))
	return nil
}

func (s *Service) UnbanUser(ctx context.Context, userID int64) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.UpdateStatus(ctx, userID, UserStatusActive); err != nil {
		return err
	}

	s.metrics.RecordAccountAction(ctx, "unban")
	s.logger.InfoCtx(ctx, "user unbanned", zap.Int64("user_id", userID))
	return nil
}

// RevokeSessions logs userID out everywhere without touching the account
func (s *Service) RevokeSessions(ctx context.Context, userID int64) error {
	return s.sessions.InvalidateAll(ctx, userID)
}

// ChangePassword verifies the old password, stores the new one and revokes every session
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwords.CheckPassword(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := s.passwords.ValidatePassword(ctx, newPassword); err != nil {
		return err
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.sessions.InvalidateAll(ctx, userID); err != nil {
		return err
	}

	s.metrics.RecordAccountAction(ctx, "change_password")
	s.logger.InfoCtx(ctx, "password changed", zap.Int64("user_id", userID))
	return nil
}

func subjectOf(u *User) session.Subject {
	return session.Subject{ID: u.ID, Name: u.Username, Roles: u.Roles()}
}

func resultOf(pair *session.TokenPair, u *User) *LoginResult {
	return &LoginResult{
		TokenPair: pair,
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Type:      u.Type,
	}
}
