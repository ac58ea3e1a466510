// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders verdict reports as human-readable text blocks,
// JSON lines, or a YAML document stream.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-triage/internal/evaluate"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Separator closes every text block.
var Separator = strings.Repeat("=", 80)

// Writer emits one report at a time. Implementations are safe for
// concurrent use.
type Writer interface {
	Write(r types.VerdictReport) error
}

// New returns a Writer for format. An unknown format is a config error.
func New(format string, w io.Writer) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return &textWriter{w: w}, nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return &jsonWriter{enc: enc}, nil
	case FormatYAML:
		return &yamlWriter{w: w}, nil
	default:
		return nil, types.Configf("unknown output format %q (want text, json or yaml)", format)
	}
}

type textWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *textWriter) Write(r types.VerdictReport) error {
	var b strings.Builder
	if r.Failed() {
		fmt.Fprintf(&b, "Failed to evaluate: %s\n", r.URL)
		fmt.Fprintf(&b, "Error (%s): %s\n", r.Error.Kind, r.Error.Error())
	} else {
		fmt.Fprintf(&b, "Evaluating the paper: %s\n", r.Title)
		fmt.Fprintf(&b, "Link: %s\n\n", r.URL)
		fmt.Fprintf(&b, "Verdict: %s\n\n", r.Verdict)
	}
	b.WriteString(Separator)
	b.WriteByte('\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, b.String())
	return err
}

type jsonWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (j *jsonWriter) Write(r types.VerdictReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report for %s: %w", r.URL, err)
	}
	return nil
}

type yamlWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (y *yamlWriter) Write(r types.VerdictReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report for %s: %w", r.URL, err)
	}

	y.mu.Lock()
	defer y.mu.Unlock()
	if _, err := io.WriteString(y.w, "---\n"); err != nil {
		return err
	}
	_, err = y.w.Write(data)
	return err
}

// WriteSummary prints the batch totals followed by a count per failure kind.
func WriteSummary(w io.Writer, s evaluate.BatchSummary) error {
	if _, err := fmt.Fprintf(w, "Batch summary: %d succeeded, %d failed (total: %d)\n",
		s.Succeeded, s.Failed, s.Total()); err != nil {
		return err
	}

	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", k, s.ByKind[types.ErrorKind(k)]); err != nil {
			return err
		}
	}
	return nil
}
