// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the plain-terminal fallback for environments where
// the full-screen console cannot run (dumb terminals, CI, scripting).
// It speaks the same backend through the same session store, one
// command per line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/export"
	"github.com/ksadmin/ksadmin/internal/session"
)

// commands lists every REPL command for completion and help.
var commands = []string{
	"help", "login", "logout", "whoami", "users", "search",
	"get", "stats", "export", "delete", "quit",
}

const helpText = `Commands:
  login                       sign in (prompts for email and password)
  logout                      sign out
  whoami                      show the current identity and roles
  users [page]                list users (admin)
  search <field> <term>       search users by name, email, city or country
  get <email>                 show one user record
  stats                       dashboard counters (admin)
  export                      save the user listing as CSV (admin)
  delete <email>              delete an account (admin)
  help                        this text
  quit                        exit
`

// Shell is the line-oriented client.
type Shell struct {
	sess     *session.Store
	client   *api.Client
	exporter *export.Exporter

	line    *liner.State
	out     io.Writer
	history string
}

// NewShell wires a shell over the shared collaborators.
func NewShell(sess *session.Store, client *api.Client, exporter *export.Exporter, historyDir string) *Shell {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) (out []string) {
		for _, c := range commands {
			if strings.HasPrefix(c, prefix) {
				out = append(out, c)
			}
		}
		return out
	})

	s := &Shell{
		sess:     sess,
		client:   client,
		exporter: exporter,
		line:     line,
		out:      os.Stdout,
		history:  filepath.Join(historyDir, "cli_history"),
	}
	if f, err := os.Open(s.history); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return s
}

// Close persists history and restores the terminal.
func (s *Shell) Close() {
	if f, err := os.OpenFile(s.history, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
		_, _ = s.line.WriteHistory(f)
		f.Close()
	}
	s.line.Close()
}

// Run is the REPL loop. Returns when the user quits or input ends.
func (s *Shell) Run() error {
	defer s.Close()
	s.printf("ksadmin plain mode. Type 'help' for commands.\n")

	for {
		prompt := "ksadmin> "
		if s.sess.Active() {
			prompt = s.sess.Identity().Username + "> "
		}

		input, err := s.line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.line.AppendHistory(input)

		if done := s.dispatch(input); done {
			return nil
		}
	}
}

// dispatch runs one command line; true means quit.
func (s *Shell) dispatch(input string) bool {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		s.printf("%s", helpText)
	case "login":
		s.cmdLogin(ctx)
	case "logout":
		s.cmdLogout(ctx)
	case "whoami":
		s.cmdWhoami()
	case "users":
		s.cmdUsers(ctx, args)
	case "search":
		s.cmdSearch(ctx, args)
	case "get":
		s.cmdGet(ctx, args)
	case "stats":
		s.cmdStats(ctx)
	case "export":
		s.cmdExport(ctx)
	case "delete":
		s.cmdDelete(ctx, args)
	default:
		s.printf("unknown command %q; try 'help'\n", cmd)
	}
	return false
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) fail(err error) {
	s.printf("error: %v\n", err)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (s *Shell) cmdLogin(ctx context.Context) {
	email, err := s.line.Prompt("email: ")
	if err != nil {
		return
	}
	email = strings.TrimSpace(email)

	// Password never goes through liner so it stays out of history.
	s.printf("password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	s.printf("\n")
	if err != nil {
		s.fail(err)
		return
	}

	resp, err := s.sess.Login(ctx, email, string(raw))
	switch {
	case errors.Is(err, session.ErrVerificationPending):
		s.printf("account verification pending; check your email, then run:\n")
		s.printf("  verify is only available in the full console\n")
	case err != nil:
		s.fail(err)
	default:
		s.printf("signed in as %s (%s)\n", resp.Username, strings.Join(resp.Roles, ", "))
	}
}

func (s *Shell) cmdLogout(ctx context.Context) {
	if !s.sess.Active() {
		s.printf("not signed in\n")
		return
	}
	if err := s.sess.Logout(ctx); err != nil {
		s.printf("server sign-out failed (%v); local session cleared\n", err)
		return
	}
	s.printf("signed out\n")
}

func (s *Shell) cmdWhoami() {
	if !s.sess.Active() {
		s.printf("not signed in\n")
		return
	}
	id := s.sess.Identity()
	s.printf("%s <%s>  roles: %s\n", id.Username, id.Email, strings.Join(s.sess.Roles(), ", "))
	if exp := s.sess.TokenExpiry(); !exp.IsZero() {
		s.printf("token expires %s\n", exp.Format(time.RFC3339))
	}
}

func (s *Shell) requireSession() bool {
	if !s.sess.Active() {
		s.printf("sign in first\n")
		return false
	}
	return true
}

func (s *Shell) cmdUsers(ctx context.Context, args []string) {
	if !s.requireSession() {
		return
	}
	q := api.DefaultPageQuery()
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 0 {
			q.Page = n
		}
	}

	page, err := s.client.ListUsers(ctx, q)
	if err != nil {
		s.fail(err)
		return
	}
	s.printPage(page)
}

func (s *Shell) cmdSearch(ctx context.Context, args []string) {
	if !s.requireSession() {
		return
	}
	if len(args) < 2 {
		s.printf("usage: search <name|email|city|country> <term>\n")
		return
	}

	page, err := s.client.SearchUsers(ctx, api.SearchField(args[0]),
		strings.Join(args[1:], " "), api.DefaultPageQuery())
	if err != nil {
		s.fail(err)
		return
	}
	s.printPage(page)
}

func (s *Shell) printPage(page *api.UserPage) {
	for _, u := range page.Content {
		status := " "
		if u.Active {
			status = "*"
		}
		s.printf("%s %-32s %-24s %s\n", status, u.Email, u.DisplayName(), strings.Join(u.Roles, ","))
	}
	s.printf("page %d/%d, %d users total (* = active)\n",
		page.Number+1, page.TotalPages, page.TotalElements)
}

func (s *Shell) cmdGet(ctx context.Context, args []string) {
	if !s.requireSession() {
		return
	}
	if len(args) != 1 {
		s.printf("usage: get <email>\n")
		return
	}

	u, err := s.client.GetUserByEmail(ctx, args[0])
	if err != nil {
		s.fail(err)
		return
	}

	s.printf("id:       %s\n", u.ID)
	s.printf("email:    %s\n", u.Email)
	s.printf("name:     %s\n", u.DisplayName())
	s.printf("roles:    %s\n", strings.Join(u.Roles, ", "))
	s.printf("active:   %t\n", u.Active)
	if !u.CreatedAt.IsZero() {
		s.printf("created:  %s\n", u.CreatedAt.Format("2006-01-02"))
	}
	if p := u.Profile; p != nil {
		s.printf("phone:    %s\n", p.PhoneNumber)
		s.printf("address:  %s %s %s %s\n",
			p.Address.Street, p.Address.City, p.Address.State, p.Address.Country)
	}
}

func (s *Shell) cmdStats(ctx context.Context) {
	if !s.requireSession() {
		return
	}
	stats, err := s.client.DashboardStats(ctx)
	if err != nil {
		s.fail(err)
		return
	}

	s.printf("total users:           %d\n", stats.TotalUsers)
	s.printf("active users:          %d\n", stats.ActiveUsers)
	s.printf("pending verifications: %d\n", stats.PendingVerifications)
	s.printf("first-time logins:     %d\n", stats.FirstTimeLogins)
	s.printf("new this month:        %d\n", stats.NewUsersThisMonth)
	s.printf("admins:                %d\n", stats.AdminUsers)
	s.printf("admin+user:            %d\n", stats.BothAdminAndUser)
	s.printf("regular users:         %d\n", stats.RegularUsers)
}

func (s *Shell) cmdExport(ctx context.Context) {
	if !s.requireSession() {
		return
	}
	data, err := s.client.DownloadUsers(ctx, api.DefaultPageQuery())
	if err != nil {
		s.fail(err)
		return
	}
	path, err := s.exporter.SaveCSV(data)
	if err != nil {
		s.fail(err)
		return
	}
	s.printf("exported to %s\n", path)
}

func (s *Shell) cmdDelete(ctx context.Context, args []string) {
	if !s.requireSession() {
		return
	}
	if len(args) != 1 {
		s.printf("usage: delete <email>\n")
		return
	}

	confirm, err := s.line.Prompt(fmt.Sprintf("delete %s? [y/N] ", args[0]))
	if err != nil || !strings.EqualFold(strings.TrimSpace(confirm), "y") {
		s.printf("cancelled\n")
		return
	}

	resp, err := s.client.DeleteUser(ctx, args[0])
	if err != nil {
		s.fail(err)
		return
	}
	s.printf("%s\n", resp.Message)
}
