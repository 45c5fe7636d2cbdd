package auth

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordService hashes, checks and polices passwords
type PasswordService struct {
	policy     PasswordPolicy
	bcryptCost int
	metrics    *AuthMetrics
}

func NewPasswordService(cfg PasswordConfig, metrics *AuthMetrics) *PasswordService {
	return &PasswordService{
		policy:     cfg.Policy,
		bcryptCost: cfg.BcryptCost,
		metrics:    metrics,
	}
}

// HashPassword hash password (bcrypt)
func (s *PasswordService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func (s *PasswordService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks password against the policy
func (s *PasswordService) ValidatePassword(ctx context.Context, password string) error {
	if err := s.check(password); err != nil {
		s.metrics.RecordPasswordValidation(ctx, "rejected")
		return err
	}
	s.metrics.RecordPasswordValidation(ctx, "valid")
	return nil
}

func (s *PasswordService) check(password string) error {
	if len(password) < s.policy.MinLength {
		return ErrPasswordTooShort
	}
	if len(password) > s.policy.MaxLength {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	switch {
	case s.policy.RequireUppercase && !hasUpper:
		return ErrPasswordRequireUppercase
	case s.policy.RequireLowercase && !hasLower:
		return ErrPasswordRequireLowercase
	case s.policy.RequireDigit && !hasDigit:
		return ErrPasswordRequireDigit
	case s.policy.RequireSpecialChar && !hasSpecial:
		return ErrPasswordRequireSpecial
	}

	lower := strings.ToLower(password)
	for _, weak := range s.policy.Blacklist {
		if strings.Contains(lower, strings.ToLower(weak)) {
			return ErrPasswordInBlacklist
		}
	}
	return nil
}

// Policy returns the password policy
func (s *PasswordService) Policy() PasswordPolicy {
	return s.policy
}
