package auth

import (
	"context"
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/database"
	"gorm.io/gorm"
)

// Roles carried in tokens
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// UserType 用户类型
type UserType int

const (
	UserTypeNormal UserType = 0
	UserTypeAdmin  UserType = 1
)

// UserStatus 账户状态
type UserStatus int

const (
	UserStatusActive UserStatus = 0
	UserStatusBanned UserStatus = 1
)

// User account record
type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:128" json:"email"`
	PasswordHash string     `gorm:"size:128;not null" json:"-"`
	Type         UserType   `gorm:"not null;default:0" json:"type"`
	Status       UserStatus `gorm:"not null;default:0" json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Roles every user has ROLE_USER; admins also ROLE_ADMIN
func (u *User) Roles() []string {
	if u.Type == UserTypeAdmin {
		return []string{RoleUser, RoleAdmin}
	}
	return []string{RoleUser}
}

func (u *User) IsBanned() bool {
	return u.Status == UserStatusBanned
}

// UserRepository account persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpdateStatus(ctx context.Context, id int64, status UserStatus) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// GormUserRepository UserRepository on gorm
type GormUserRepository struct {
	base *database.BaseRepository[User]
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{base: database.NewBaseRepository[User](db)}
}

// Migrate creates or updates the users table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}

func (r *GormUserRepository) Create(ctx context.Context, user *User) error {
	err := r.base.Create(ctx, user)
	if errors.Is(err, database.ErrDuplicateKey) {
		return ErrUsernameTaken
	}
	return err
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return notFound(r.base.FindByID(ctx, id))
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return notFound(r.base.FindOne(ctx, "username = ?", username))
}

func (r *GormUserRepository) UpdateStatus(ctx context.Context, id int64, status UserStatus) error {
	return r.base.UpdateColumns(ctx, id, map[string]any{"status": status})
}

func (r *GormUserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.base.UpdateColumns(ctx, id, map[string]any{"password_hash": hash})
}

func notFound(u *User, err error) (*User, error) {
	if errors.Is(err, database.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
