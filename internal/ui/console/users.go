// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/ui/styles"
)

// searchFields is the order the search key cycles through.
var searchFields = []api.SearchField{
	api.SearchByName, api.SearchByEmail, api.SearchByCity, api.SearchByCountry,
}

// usersView is the paginated, searchable user table. Admin only: data
// loads only after the authoritative role check passes.
type usersView struct {
	theme *styles.Theme

	table     table.Model
	pager     paginator.Model
	search    textinput.Model
	searching bool
	field     int // index into searchFields
	term      string

	query      api.PageQuery
	page       *api.UserPage
	loading    bool
	authorized bool
	spinner    spinner.Model
	errMsg     string

	confirmDelete string // email pending delete confirmation, "" = none
}

func newUsersView(theme *styles.Theme) usersView {
	tbl := table.New(
		table.WithColumns(userColumns(96)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	applyTableStyles(&tbl, theme)

	pager := paginator.New()
	pager.Type = paginator.Dots

	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 64
	search.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return usersView{
		theme:   theme,
		table:   tbl,
		pager:   pager,
		search:  search,
		query:   api.DefaultPageQuery(),
		spinner: sp,
		loading: true,
	}
}

func userColumns(width int) []table.Column {
	name := width - 30 - 12 - 10 - 12 - 8
	if name < 16 {
		name = 16
	}
	return []table.Column{
		{Title: "Email", Width: 30},
		{Title: "Name", Width: name},
		{Title: "Roles", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Created", Width: 12},
	}
}

func applyTableStyles(tbl *table.Model, theme *styles.Theme) {
	st := table.DefaultStyles()
	st.Header = theme.TableHeader
	st.Cell = theme.TableRow
	st.Selected = theme.TableSelected
	tbl.SetStyles(st)
}

func (v *usersView) setTheme(theme *styles.Theme) {
	v.theme = theme
	applyTableStyles(&v.table, theme)
	v.spinner.Style = theme.Spinner
}

func (v *usersView) spin() tea.Cmd {
	return v.spinner.Tick
}

// setPage installs a loaded listing page.
func (v *usersView) setPage(page *api.UserPage, dateFormat string) {
	v.page = page
	v.loading = false
	v.errMsg = ""

	rows := make([]table.Row, 0, len(page.Content))
	for _, u := range page.Content {
		status := "inactive"
		if u.Active {
			status = "active"
		}
		created := ""
		if !u.CreatedAt.IsZero() {
			created = u.CreatedAt.Format(dateFormat)
		}
		rows = append(rows, table.Row{
			u.Email,
			u.DisplayName(),
			strings.Join(u.Roles, ","),
			status,
			created,
		})
	}
	v.table.SetRows(rows)

	v.pager.SetTotalPages(maxInt(page.TotalPages, 1))
	v.pager.Page = page.Number
}

func (v *usersView) fail(msg string) {
	v.loading = false
	v.errMsg = msg
}

// selected returns the user under the cursor, if any.
func (v *usersView) selected() *api.User {
	if v.page == nil {
		return nil
	}
	idx := v.table.Cursor()
	if idx < 0 || idx >= len(v.page.Content) {
		return nil
	}
	return &v.page.Content[idx]
}

// update handles input. The returned request, when non-nil, asks the
// root model to reload the listing with the given query.
type usersRequest struct {
	reload bool
	open   *api.User
	delete string // email confirmed for deletion
	export bool
}

func (v usersView) update(msg tea.Msg, keys KeyMap) (usersView, tea.Cmd, usersRequest) {
	if v.loading {
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd, usersRequest{}
	}

	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		var cmd tea.Cmd
		v.table, cmd = v.table.Update(msg)
		return v, cmd, usersRequest{}
	}

	// Delete confirmation intercepts everything.
	if v.confirmDelete != "" {
		switch key.String() {
		case "y", "Y":
			email := v.confirmDelete
			v.confirmDelete = ""
			return v, nil, usersRequest{delete: email}
		default:
			v.confirmDelete = ""
		}
		return v, nil, usersRequest{}
	}

	// Search entry mode.
	if v.searching {
		switch {
		case matches(key, keys.Submit):
			v.searching = false
			v.term = strings.TrimSpace(v.search.Value())
			v.query.Page = 0
			v.loading = true
			return v, v.spin(), usersRequest{reload: true}
		case matches(key, keys.Back):
			v.searching = false
			v.search.SetValue("")
			if v.term != "" {
				v.term = ""
				v.query.Page = 0
				v.loading = true
				return v, v.spin(), usersRequest{reload: true}
			}
			return v, nil, usersRequest{}
		}
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		return v, cmd, usersRequest{}
	}

	switch {
	case matches(key, keys.Search):
		v.searching = true
		v.search.Focus()
		return v, nil, usersRequest{}

	case key.String() == "f": // cycle search field
		v.field = (v.field + 1) % len(searchFields)
		if v.term != "" {
			v.query.Page = 0
			v.loading = true
			return v, v.spin(), usersRequest{reload: true}
		}
		return v, nil, usersRequest{}

	case matches(key, keys.NextPage):
		if v.page != nil && !v.page.Last {
			v.query.Page++
			v.loading = true
			return v, v.spin(), usersRequest{reload: true}
		}
		return v, nil, usersRequest{}

	case matches(key, keys.PrevPage):
		if v.query.Page > 0 {
			v.query.Page--
			v.loading = true
			return v, v.spin(), usersRequest{reload: true}
		}
		return v, nil, usersRequest{}

	case matches(key, keys.Refresh):
		v.loading = true
		return v, v.spin(), usersRequest{reload: true}

	case matches(key, keys.Export):
		return v, nil, usersRequest{export: true}

	case matches(key, keys.Delete):
		if u := v.selected(); u != nil {
			v.confirmDelete = u.Email
		}
		return v, nil, usersRequest{}

	case matches(key, keys.Submit):
		if u := v.selected(); u != nil {
			return v, nil, usersRequest{open: u}
		}
		return v, nil, usersRequest{}
	}

	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd, usersRequest{}
}

func (v usersView) view() string {
	var b strings.Builder
	b.WriteString(v.theme.HeaderTitle.Render("Users"))
	b.WriteString("  ")
	b.WriteString(v.theme.Muted.Render("search by " + string(searchFields[v.field]) + " (f to change)"))
	b.WriteString("\n\n")

	if v.searching {
		b.WriteString(v.theme.FormFieldFocus.Render(v.search.View()))
		b.WriteString("\n")
	} else if v.term != "" {
		b.WriteString(v.theme.Muted.Render(fmt.Sprintf("filter: %s=%q (esc in search clears)", searchFields[v.field], v.term)))
		b.WriteString("\n")
	}

	switch {
	case !v.authorized && v.loading:
		b.WriteString(v.spinner.View() + " Checking permissions…")
		return b.String()
	case v.loading:
		b.WriteString(v.spinner.View() + " Loading users…")
		return b.String()
	case v.errMsg != "":
		b.WriteString(v.theme.FormError.Render(v.errMsg))
		return b.String()
	}

	b.WriteString(v.table.View())
	b.WriteString("\n")

	if v.page != nil {
		b.WriteString(v.theme.PageInfo.Render(fmt.Sprintf(
			"page %d/%d · %d users  %s",
			v.page.Number+1, maxInt(v.page.TotalPages, 1), v.page.TotalElements, v.pager.View(),
		)))
	}

	if v.confirmDelete != "" {
		b.WriteString("\n\n")
		b.WriteString(v.theme.FormError.Render(
			fmt.Sprintf("Delete %s? Press y to confirm, any other key to cancel", v.confirmDelete)))
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
