package api

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64), validation.Match(usernamePattern)),
		validation.Field(&r.Email, validation.Length(0, 128), is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RefreshRequest body of /auth/refresh, query of /auth/refresh-token/usage
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// LogoutRequest refreshToken is optional
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (r *ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.By(func(any) error {
			if r.NewPassword == r.OldPassword {
				return errors.New("must differ from the old password")
			}
			return nil
		})),
	)
}

// UserIDRequest path parameter of the admin routes
type UserIDRequest struct {
	ID int64 `uri:"id" json:"-"`
}

func (r *UserIDRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, validation.Min(int64(1))),
	)
}

type UsageResponse struct {
	RemainingUsage int `json:"remainingUsage"`
}

// Empty 无数据返回
type Empty struct{}
