package logquery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"guidsearch/internal/command"
	"guidsearch/internal/config"
)

// ErrNotFound reports that the query succeeded but no marker line carried
// an identifier token. Callers distinguish it from execution errors with
// errors.Is; both end the run, but they are reported differently.
var ErrNotFound = errors.New("identifier not found in archive")

// guidPattern matches the 8-4-4-4-12 hyphenated hexadecimal identifier
// grammar, case-insensitive. Candidates are additionally round-tripped
// through uuid.Parse before being accepted.
var guidPattern = regexp.MustCompile(`[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}`)

// Extractor runs the filtered log query through a command.Runner.
type Extractor struct {
	cfg    config.Config
	runner command.Runner
}

// NewExtractor creates an Extractor.
func NewExtractor(cfg config.Config, runner command.Runner) *Extractor {
	return &Extractor{cfg: cfg, runner: runner}
}

// Extract queries the collected archive for lines produced by the
// configured process whose message mentions the marker, then scans the
// output for the identifier.
//
// A non-zero query status (including timeout) is an execution error.
// A clean query with no usable line returns ErrNotFound.
func (e *Extractor) Extract(ctx context.Context, archivePath string) (string, error) {
	predicate := fmt.Sprintf("process == %q AND eventMessage CONTAINS %q", e.cfg.Process, e.cfg.Marker)
	argv := []string{
		e.cfg.LogPath, "show",
		"--archive", archivePath,
		"--info", "--debug",
		"--style", "syslog",
		"--predicate", predicate,
	}

	res, err := e.runner.Run(ctx, time.Duration(e.cfg.QueryTimeout), argv...)
	if err != nil {
		return "", fmt.Errorf("log query could not be issued: %w", err)
	}
	if res.ExitCode != 0 {
		if res.Stderr != "" {
			log.Debugf("log show stderr: %s", res.Stderr)
		}
		return "", fmt.Errorf("log show exited with status %d", res.ExitCode)
	}

	guid, ok := FindGUID(res.Stdout, e.cfg.Marker)
	if !ok {
		return "", ErrNotFound
	}
	return guid, nil
}

// FindGUID scans text line by line and extracts an identifier token from
// the first marker line that carries one, normalized to upper case.
//
// Marker lines without a token do not end the search — the scan falls
// through to later marker lines, and the first token found wins. Tokens
// on lines that do not mention the marker are never considered.
func FindGUID(text, marker string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, marker) {
			continue
		}
		log.Debugf("marker line: %s", strings.TrimSpace(line))

		match := guidPattern.FindString(line)
		if match == "" {
			continue
		}
		parsed, err := uuid.Parse(match)
		if err != nil {
			continue
		}
		// uuid owns canonicalization: the result is the parsed value's
		// canonical form, upper-cased, not the raw regexp match.
		return strings.ToUpper(parsed.String()), true
	}
	return "", false
}
