// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inputs reads the evaluation context files and the paper URL list.
// Every problem found here is a config error: it must surface before any
// network work begins.
package inputs

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// ContextFiles names the four files that make up an EvaluationContext.
type ContextFiles struct {
	CompanyName           string
	CompanyDescription    string
	DepartmentName        string
	DepartmentDescription string
}

// ReadContext reads every context file and trims its contents. All missing
// or unreadable files are reported together.
func ReadContext(files ContextFiles) (types.EvaluationContext, error) {
	var errs []error
	read := func(label, path string) string {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, types.Configf("%s file not set", label))
			return ""
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, types.NewError(types.KindConfig, "", fmt.Errorf("reading %s file: %w", label, err)))
			return ""
		}
		return strings.TrimSpace(string(data))
	}

	ectx := types.EvaluationContext{
		CompanyName:           read("company name", files.CompanyName),
		CompanyDescription:    read("company description", files.CompanyDescription),
		DepartmentName:        read("department name", files.DepartmentName),
		DepartmentDescription: read("department description", files.DepartmentDescription),
	}
	if len(errs) > 0 {
		return types.EvaluationContext{}, errors.Join(errs...)
	}
	return ectx, nil
}

// LoadURLs reads one URL per line from path. Blank lines and lines starting
// with # are skipped; repeated URLs keep their first position and the number
// dropped is logged.
func LoadURLs(path string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.KindConfig, "", fmt.Errorf("opening URL list: %w", err))
	}
	defer f.Close()

	seen := make(map[string]bool)
	var urls []string
	duplicates := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			duplicates++
			continue
		}
		seen[line] = true
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, types.NewError(types.KindConfig, "", fmt.Errorf("reading URL list %s: %w", path, err))
	}
	if len(urls) == 0 {
		return nil, types.Configf("URL list %s is empty", path)
	}
	if duplicates > 0 {
		logger.Warn("dropped duplicate URLs",
			zap.String("path", path),
			zap.Int("duplicates", duplicates),
			zap.Int("unique", len(urls)))
	}
	return urls, nil
}

// Sample draws n distinct URLs without replacement. When n is at least
// len(urls) the whole list comes back shuffled. A nil rng uses the global source.
func Sample(urls []string, n int, rng *rand.Rand) []string {
	if n <= 0 {
		return nil
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}

	out := make([]string, len(urls))
	copy(out, urls)
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Refs converts URLs into PaperRefs.
func Refs(urls []string) []types.PaperRef {
	refs := make([]types.PaperRef, len(urls))
	for i, u := range urls {
		refs[i] = types.PaperRef{URL: u}
	}
	return refs
}
