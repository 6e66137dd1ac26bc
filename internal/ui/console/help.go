// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"github.com/charmbracelet/glamour"

	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

const helpMarkdown = `# ksadmin

A terminal console for the accounts backend.

## Navigation

| Key | Action |
|-----|--------|
| F1 | This help |
| F2 | Dashboard |
| F3 | Users (admin) |
| F4 | My profile |
| F5 | Settings |
| C-l | Sign out |
| esc | Back |
| C-c | Quit |

## Users view

| Key | Action |
|-----|--------|
| / | Search |
| f | Cycle search field (name, email, city, country) |
| ←/→ | Previous / next page |
| C-r | Refresh |
| C-e | Export the current page |
| C-d | Delete the selected user |
| enter | Open the selected user |
| j | Toggle raw record (in detail view) |

## Session

The console signs you out automatically after a period of inactivity.
A warning appears shortly before; press any key to stay signed in.
Idle and warning durations are set in the configuration file.
`

// helpView renders the static help text through glamour, re-rendered
// on resize and theme change.
type helpView struct {
	theme *styles.Theme

	rendered string
}

func newHelpView(theme *styles.Theme) helpView {
	return helpView{theme: theme, rendered: helpMarkdown}
}

// render re-wraps the help markdown for the given width.
func (v *helpView) render(width int) {
	style := glamour.WithStandardStyle("light")
	if v.theme.IsDark {
		style = glamour.WithStandardStyle("dark")
	}

	wrap := width - 4
	if wrap < 40 {
		wrap = 40
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		v.rendered = helpMarkdown
		return
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		v.rendered = helpMarkdown
		return
	}
	v.rendered = out
}

func (v helpView) view() string {
	return v.rendered
}
