// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"bytes"
	"encoding/json"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderJSON pretty-prints v as syntax-highlighted JSON for the raw
// record inspector. Falls back to plain indented JSON if highlighting
// fails (e.g. a dumb terminal).
func RenderJSON(v any, dark bool) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "unrenderable: " + err.Error()
	}

	style := "github"
	if dark {
		style = "monokai"
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(data), "json", "terminal256", style); err != nil {
		return string(data)
	}
	return buf.String()
}
