// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export saves user listings to local files: the server's CSV
// dump as-is, or a listing page rendered to JSON.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/logging"
	"github.com/ksadmin/ksadmin/internal/util"
)

// Format identifies an export output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Exporter writes export files under a fixed output directory.
type Exporter struct {
	dir string
	log zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New returns an exporter writing into dir. The directory is created
// on first write.
func New(dir string) *Exporter {
	return &Exporter{
		dir: dir,
		log: logging.Component("export"),
		now: time.Now,
	}
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// SaveCSV stores a server-produced CSV dump verbatim.
func (e *Exporter) SaveCSV(data []byte) (string, error) {
	return e.write(FormatCSV, data)
}

// SaveJSON renders a slice of user records as indented JSON.
func (e *Exporter) SaveJSON(users []api.User) (string, error) {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode users: %w", err)
	}
	return e.write(FormatJSON, data)
}

func (e *Exporter) write(format Format, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("nothing to export")
	}

	path := fmt.Sprintf("%s/users_%s.%s", e.dir, e.now().Format("20060102_150405"), format)
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	e.log.Info().Str("path", path).Int("bytes", len(data)).Msg("export written")
	return path, nil
}
