// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// dashboardView shows the account statistics summary.
type dashboardView struct {
	theme *styles.Theme

	stats   *api.DashboardStats
	loading bool
	errMsg  string
}

func newDashboardView(theme *styles.Theme) dashboardView {
	return dashboardView{theme: theme, loading: true}
}

func (v *dashboardView) setStats(stats *api.DashboardStats) {
	v.stats = stats
	v.loading = false
	v.errMsg = ""
}

func (v *dashboardView) fail(msg string) {
	v.loading = false
	v.errMsg = msg
}

func (v dashboardView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("Dashboard"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.theme.Muted.Render("Loading statistics…"))
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
	case v.stats == nil:
		b.WriteString(v.theme.Muted.Render("No statistics available"))
	default:
		b.WriteString(v.renderCards())
	}
	return b.String()
}

func (v dashboardView) renderCards() string {
	s := v.stats
	cards := []struct {
		label string
		value int64
	}{
		{"Total users", s.TotalUsers},
		{"Active", s.ActiveUsers},
		{"Pending verification", s.PendingVerifications},
		{"First-time logins", s.FirstTimeLogins},
		{"New this month", s.NewUsersThisMonth},
		{"Admins", s.AdminUsers},
		{"Admin + user", s.BothAdminAndUser},
		{"Regular users", s.RegularUsers},
	}

	card := v.theme.TableBorder.Padding(0, 2).Width(24)
	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		rendered = append(rendered, card.Render(
			v.theme.Muted.Render(c.label)+"\n"+
				v.theme.HeaderTitle.Render(fmt.Sprintf("%d", c.value)),
		))
	}

	// Two cards per row keeps the grid readable at 80 columns.
	rows := make([]string, 0, (len(rendered)+1)/2)
	for i := 0; i < len(rendered); i += 2 {
		if i+1 < len(rendered) {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered[i], " ", rendered[i+1]))
		} else {
			rows = append(rows, rendered[i])
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
