// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keyboard bindings. Views layer their own
// field-level handling on top.
type KeyMap struct {
	Quit      key.Binding
	Back      key.Binding
	Help      key.Binding
	Dashboard key.Binding
	Users     key.Binding
	Profile   key.Binding
	Settings  key.Binding
	Logout    key.Binding
	Register  key.Binding
	Forgot    key.Binding
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Search    key.Binding
	Refresh   key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Export    key.Binding
	Delete    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "ctrl+_"),
			key.WithHelp("F1", "help"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "dashboard"),
		),
		Users: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "users"),
		),
		Profile: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("F4", "profile"),
		),
		Settings: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("F5", "settings"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "logout"),
		),
		Register: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("F6", "register"),
		),
		Forgot: key.NewBinding(
			key.WithKeys("f7"),
			key.WithHelp("F7", "forgot password"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-tab", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "pgdown"),
			key.WithHelp("→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "pgup"),
			key.WithHelp("←", "prev page"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "delete"),
		),
	}
}
