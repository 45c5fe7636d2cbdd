package auth

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
)

func newErr(code int, key, msg string, status int) *errcode.LayeredError {
	return errcode.Register(errcode.New(errcode.ModuleAuth, code, "auth", "error.auth."+key, msg, status))
}

// 密码策略
var (
	ErrPasswordTooShort         = newErr(1, "password_too_short", "密码长度过短", http.StatusBadRequest)
	ErrPasswordTooLong          = newErr(2, "password_too_long", "密码长度过长", http.StatusBadRequest)
	ErrPasswordRequireUppercase = newErr(3, "password_require_uppercase", "密码必须包含大写字母", http.StatusBadRequest)
	ErrPasswordRequireLowercase = newErr(4, "password_require_lowercase", "密码必须包含小写字母", http.StatusBadRequest)
	ErrPasswordRequireDigit     = newErr(5, "password_require_digit", "密码必须包含数字", http.StatusBadRequest)
	ErrPasswordRequireSpecial   = newErr(6, "password_require_special", "密码必须包含特殊字符", http.StatusBadRequest)
	ErrPasswordInBlacklist      = newErr(7, "password_in_blacklist", "密码在黑名单中", http.StatusBadRequest)
)

// 账户与登录
var (
	ErrInvalidCredentials = newErr(10, "invalid_credentials", "用户名或密码错误", http.StatusUnauthorized)
	ErrUserNotFound       = newErr(11, "user_not_found", "用户不存在", http.StatusNotFound)
	ErrAccountBanned      = newErr(12, "account_banned", "账户已被封禁", http.StatusForbidden)
	ErrTooManyAttempts    = newErr(13, "too_many_attempts", "登录尝试次数过多，请稍后再试", http.StatusTooManyRequests)
	ErrUsernameTaken      = newErr(14, "username_taken", "用户名已存在", http.StatusConflict)
)
