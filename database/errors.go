package database

import "errors"

var (
	// ErrRecordNotFound Record not found
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey Primary key or unique key conflict
	ErrDuplicateKey = errors.New("duplicate key")
)
