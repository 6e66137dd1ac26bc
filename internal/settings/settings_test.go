// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ksadmin/ksadmin/internal/storage"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), storage.DefaultFileName))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"valid palette color", func(s *Settings) { s.PrimaryColor = "teal" }, true},
		{"unknown color", func(s *Settings) { s.PrimaryColor = "magenta" }, false},
		{"font too small", func(s *Settings) { s.FontSize = 6 }, false},
		{"font too large", func(s *Settings) { s.FontSize = 40 }, false},
		{"regional language tag", func(s *Settings) { s.Language = "pt-BR" }, true},
		{"garbage language tag", func(s *Settings) { s.Language = "not a tag!" }, false},
		{"empty date format", func(s *Settings) { s.DateFormat = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTag(t *testing.T) {
	s := Default()
	s.Language = "pt-BR"
	assert.Equal(t, language.MustParse("pt-BR"), s.Tag())

	s.Language = "???"
	assert.Equal(t, language.English, s.Tag())
}

func TestUpdate_PersistsAndNotifies(t *testing.T) {
	store := openStore(t)
	svc := NewService(store)

	var got []Settings
	svc.Subscribe(func(v Settings) { got = append(got, v) })

	next := Default()
	next.DarkMode = false
	next.PrimaryColor = "rose"
	next.Language = "de"
	require.NoError(t, svc.Update(next))

	require.Len(t, got, 1)
	assert.Equal(t, "rose", got[0].PrimaryColor)

	// A fresh service over the same store sees the saved values.
	svc2 := NewService(store)
	assert.Equal(t, next, svc2.Current())
}

func TestUpdate_RejectsInvalid(t *testing.T) {
	svc := NewService(nil)

	bad := Default()
	bad.PrimaryColor = "octarine"
	assert.Error(t, svc.Update(bad))
	assert.Equal(t, Default(), svc.Current(), "rejected update must not apply")
}

func TestLoad_IgnoresCorruptValues(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.SetSetting("font_size", "huge"))
	require.NoError(t, store.SetSetting("primary_color", "nope"))
	require.NoError(t, store.SetSetting("language", "de"))

	svc := NewService(store)
	cur := svc.Current()
	assert.Equal(t, Default().FontSize, cur.FontSize)
	assert.Equal(t, Default().PrimaryColor, cur.PrimaryColor)
	assert.Equal(t, "de", cur.Language)
}

func TestReset(t *testing.T) {
	store := openStore(t)
	svc := NewService(store)

	next := Default()
	next.PrimaryColor = "amber"
	require.NoError(t, svc.Update(next))

	var notified bool
	svc.Subscribe(func(Settings) { notified = true })

	require.NoError(t, svc.Reset())
	assert.Equal(t, Default(), svc.Current())
	assert.True(t, notified)

	svc2 := NewService(store)
	assert.Equal(t, Default(), svc2.Current())
}

func TestUnsubscribe(t *testing.T) {
	svc := NewService(nil)

	var calls int
	unsub := svc.Subscribe(func(Settings) { calls++ })
	require.NoError(t, svc.Update(Default()))
	unsub()
	require.NoError(t, svc.Update(Default()))

	assert.Equal(t, 1, calls)
}
