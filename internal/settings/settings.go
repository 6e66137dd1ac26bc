// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings manages the user's display preferences: theme,
// accent color, font size, language and date format. The local copy is
// authoritative; changes are additionally pushed to the backend on a
// best-effort basis so other clients can pick them up.
package settings

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/ksadmin/ksadmin/internal/logging"
	"github.com/ksadmin/ksadmin/internal/storage"
)

// Palette lists the accent colors the theme layer knows how to render.
var Palette = []string{"indigo", "teal", "rose", "amber", "emerald", "slate"}

// Font size bounds for terminal-friendly rendering hints.
const (
	MinFontSize = 8
	MaxFontSize = 32
)

// Settings are the persisted display preferences.
type Settings struct {
	DarkMode     bool
	PrimaryColor string
	FontSize     int
	Language     string // BCP 47 tag, e.g. "en", "pt-BR"
	DateFormat   string // Go reference layout
}

// Default returns the out-of-the-box preferences.
func Default() Settings {
	return Settings{
		DarkMode:     true,
		PrimaryColor: "indigo",
		FontSize:     14,
		Language:     "en",
		DateFormat:   "2006-01-02",
	}
}

// Validate checks a settings value before it is stored.
func (s Settings) Validate() error {
	if !validColor(s.PrimaryColor) {
		return fmt.Errorf("unknown primary color %q", s.PrimaryColor)
	}
	if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
		return fmt.Errorf("font size %d out of range [%d, %d]", s.FontSize, MinFontSize, MaxFontSize)
	}
	if _, err := language.Parse(s.Language); err != nil {
		return fmt.Errorf("invalid language tag %q: %w", s.Language, err)
	}
	if s.DateFormat == "" {
		return fmt.Errorf("date format cannot be empty")
	}
	return nil
}

// Tag returns the parsed language tag. Falls back to English for a
// value that somehow bypassed Validate.
func (s Settings) Tag() language.Tag {
	tag, err := language.Parse(s.Language)
	if err != nil {
		return language.English
	}
	return tag
}

func validColor(name string) bool {
	for _, c := range Palette {
		if c == name {
			return true
		}
	}
	return false
}

// storage keys
const (
	keyDarkMode     = "dark_mode"
	keyPrimaryColor = "primary_color"
	keyFontSize     = "font_size"
	keyLanguage     = "language"
	keyDateFormat   = "date_format"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service holds the current preferences, persists changes, and tells
// subscribers about them so open views restyle immediately.
type Service struct {
	local *storage.Store

	mu      sync.Mutex
	current Settings

	subs   []subscriber
	nextID int

	log zerolog.Logger
}

type subscriber struct {
	id int
	fn func(Settings)
}

// NewService loads stored preferences (defaults fill the gaps) and
// returns a ready service. local may be nil for in-memory use.
func NewService(local *storage.Store) *Service {
	svc := &Service{
		local:   local,
		current: Default(),
		log:     logging.Component("settings"),
	}
	svc.load()
	return svc
}

func (s *Service) load() {
	if s.local == nil {
		return
	}
	stored, err := s.local.AllSettings()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load settings; using defaults")
		return
	}

	cur := s.current
	if v, ok := stored[keyDarkMode]; ok {
		cur.DarkMode = v == "true"
	}
	if v, ok := stored[keyPrimaryColor]; ok && validColor(v) {
		cur.PrimaryColor = v
	}
	if v, ok := stored[keyFontSize]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= MinFontSize && n <= MaxFontSize {
			cur.FontSize = n
		}
	}
	if v, ok := stored[keyLanguage]; ok {
		if _, err := language.Parse(v); err == nil {
			cur.Language = v
		}
	}
	if v, ok := stored[keyDateFormat]; ok && v != "" {
		cur.DateFormat = v
	}
	s.current = cur
}

// Current returns the active preferences.
func (s *Service) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update validates, persists and announces new preferences.
func (s *Service) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.persist(next)
	s.notify(next)
	s.log.Info().
		Bool("dark", next.DarkMode).
		Str("color", next.PrimaryColor).
		Str("lang", next.Language).
		Msg("settings updated")
	return nil
}

// Reset restores defaults, wiping the stored copies.
func (s *Service) Reset() error {
	if s.local != nil {
		if err := s.local.ResetSettings(); err != nil {
			return err
		}
	}

	def := Default()
	s.mu.Lock()
	s.current = def
	s.mu.Unlock()

	s.notify(def)
	return nil
}

func (s *Service) persist(v Settings) {
	if s.local == nil {
		return
	}
	pairs := map[string]string{
		keyDarkMode:     strconv.FormatBool(v.DarkMode),
		keyPrimaryColor: v.PrimaryColor,
		keyFontSize:     strconv.Itoa(v.FontSize),
		keyLanguage:     v.Language,
		keyDateFormat:   v.DateFormat,
	}
	for k, val := range pairs {
		if err := s.local.SetSetting(k, val); err != nil {
			s.log.Warn().Err(err).Str("key", k).Msg("failed to persist setting")
		}
	}
}

// Subscribe registers fn for future settings changes; callbacks run
// synchronously in registration order. The returned function
// unregisters.
func (s *Service) Subscribe(fn func(Settings)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Service) notify(v Settings) {
	s.mu.Lock()
	snapshot := make([]subscriber, len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(v)
	}
}
