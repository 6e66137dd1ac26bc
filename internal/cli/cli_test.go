// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ksadmin/ksadmin/internal/api"
)

func TestPrintPage(t *testing.T) {
	var buf bytes.Buffer
	s := &Shell{out: &buf}

	s.printPage(&api.UserPage{
		Content: []api.User{
			{Email: "alice@example.com", Username: "alice", Roles: []string{"ADMIN"}, Active: true},
			{Email: "bob@example.com", Username: "bob", Roles: []string{"USER"}},
		},
		TotalElements: 2,
		TotalPages:    1,
		Number:        0,
	})

	out := buf.String()
	assert.Contains(t, out, "* alice@example.com")
	assert.Contains(t, out, "ADMIN")
	assert.Contains(t, out, "page 1/1, 2 users total")
	// inactive rows carry no marker
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "bob@example.com") {
			assert.True(t, strings.HasPrefix(line, "  "))
		}
	}
}

func TestHelpCoversEveryCommand(t *testing.T) {
	for _, c := range commands {
		assert.Contains(t, helpText, c, "command %q missing from help", c)
	}
}
