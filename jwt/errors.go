package jwt

import "errors"

var (
	// ErrMalformed token 结构无法解析
	ErrMalformed = errors.New("jwt: token malformed")

	// ErrInvalidSignature 签名无效（含算法不匹配、签发者不匹配）
	ErrInvalidSignature = errors.New("jwt: invalid signature")

	// ErrExpired 当前时间 >= exp
	ErrExpired = errors.New("jwt: token expired")

	// ErrEncoding claims 无法编码
	ErrEncoding = errors.New("jwt: encoding failed")

	// ErrSecretEmpty 密钥为空
	ErrSecretEmpty = errors.New("jwt: secret is empty")

	// ErrAlgorithmNotSupported 不支持的算法
	ErrAlgorithmNotSupported = errors.New("jwt: algorithm not supported")
)
