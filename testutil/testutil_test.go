package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestSetupTestDB_AndHelper(t *testing.T) {
	db := SetupTestDB(t, &widget{})
	require.NoError(t, db.Create(&[]widget{{Name: "a"}, {Name: "b"}}).Error)

	h := NewDBHelper(db)
	n, err := h.Count("widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, h.UpdateColumn("widgets", 1, "name", "z"))
	ok, err := h.Exists("widgets", "name = ?", "z")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err = h.CountWhere("widgets", "name = ?", "a")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewSessionManager(t *testing.T) {
	client, mr := NewRedis(t)
	m := NewSessionManager(t, session.Config{AccessTTL: time.Minute, RefreshTTL: time.Hour}, client)

	pair, err := m.Issue(context.Background(), session.Subject{ID: 7, Name: "alice", Roles: []string{"ROLE_USER"}})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, mr.Keys())
}
