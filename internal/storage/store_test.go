// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_SecuresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCredentials_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadCredentials()
	assert.ErrorIs(t, err, ErrNoCredentials)

	creds := Credentials{
		Token:    "tok-123",
		Email:    "admin@example.com",
		Username: "admin",
		FullName: "Admin User",
		Roles:    []string{"ADMIN", "USER"},
		SavedAt:  time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.SaveCredentials(creds))

	loaded, err := s.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, creds.Token, loaded.Token)
	assert.Equal(t, creds.Email, loaded.Email)
	assert.Equal(t, creds.Roles, loaded.Roles)
	assert.True(t, creds.SavedAt.Equal(loaded.SavedAt))
}

func TestCredentials_ReplacedOnSecondLogin(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveCredentials(Credentials{Token: "first", Email: "a@example.com", Username: "a", Roles: []string{"USER"}}))
	require.NoError(t, s.SaveCredentials(Credentials{Token: "second", Email: "b@example.com", Username: "b", Roles: []string{"ADMIN"}}))

	loaded, err := s.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.Token)
	assert.Equal(t, "b@example.com", loaded.Email)
}

func TestClearCredentials(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveCredentials(Credentials{Token: "tok", Email: "x@example.com", Username: "x", Roles: []string{"USER"}}))
	require.NoError(t, s.ClearCredentials())

	_, err := s.LoadCredentials()
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Idempotent: clearing again must not fail.
	require.NoError(t, s.ClearCredentials())
}

func TestClearCredentials_KeepsSettings(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveCredentials(Credentials{Token: "tok", Email: "x@example.com", Username: "x", Roles: []string{"USER"}}))
	require.NoError(t, s.SetSetting("theme", "dark"))

	require.NoError(t, s.ClearCredentials())

	v, err := s.GetSetting("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSetting("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetSetting("theme", "light"))
	require.NoError(t, s.SetSetting("theme", "dark")) // overwrite
	require.NoError(t, s.SetSetting("language", "de"))

	v, err := s.GetSetting("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	all, err := s.AllSettings()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark", "language": "de"}, all)

	require.NoError(t, s.DeleteSetting("language"))
	_, err = s.GetSetting("language")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.ResetSettings())
	all, err = s.AllSettings()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetSetting("font_size", "14"))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	v, err := s2.GetSetting("font_size")
	require.NoError(t, err)
	assert.Equal(t, "14", v)
}
