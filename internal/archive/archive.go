package archive

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"guidsearch/internal/command"
	"guidsearch/internal/config"
)

// Scope is the explicit acquire/release guard for the archive's backing
// storage. The pipeline defers Release immediately after NewScope, so the
// directory is removed on normal completion, early stage failure and
// unexpected errors alike — it is never left on disk.
type Scope struct {
	dir string
}

// NewScope creates a fresh temporary directory to hold one run's archive.
func NewScope() (*Scope, error) {
	dir, err := os.MkdirTemp("", "guidsearch-*")
	if err != nil {
		return nil, err
	}
	return &Scope{dir: dir}, nil
}

// ArchivePath returns the target path the collection command writes to.
// The .logarchive suffix is what log(1) expects for --archive input.
func (s *Scope) ArchivePath() string {
	return filepath.Join(s.dir, "ios_logs.logarchive")
}

// Release removes the scope's directory tree. Safe to call on a nil or
// already-released scope, so callers can defer it unconditionally.
func (s *Scope) Release() {
	if s == nil || s.dir == "" {
		return
	}
	if err := os.RemoveAll(s.dir); err != nil {
		log.WithError(err).Warn("failed to remove archive directory")
	}
	s.dir = ""
}

// Collector invokes the external log-collection command and validates
// the result.
type Collector struct {
	cfg    config.Config
	runner command.Runner
}

// NewCollector creates a Collector.
func NewCollector(cfg config.Config, runner command.Runner) *Collector {
	return &Collector{cfg: cfg, runner: runner}
}

// Collect asks the device-management tool to export a syslog archive to
// target, bounded by the collection timeout plus the grace margin. The
// command's exit status is logged but not trusted: the tool can report
// success and still leave a truncated or empty archive, and conversely a
// partial archive left behind by a failed call may still be usable. The
// outcome is decided by validation instead:
//
//	a. target exists and is a directory
//	b. the recursive file-size sum meets the configured minimum
func (c *Collector) Collect(ctx context.Context, target string) bool {
	argv := []string{c.cfg.PymobiledevicePath}
	if c.cfg.UDID != "" {
		argv = append(argv, "--udid", c.cfg.UDID)
	}
	argv = append(argv, "syslog", "collect", target)

	bound := time.Duration(c.cfg.CollectTimeout) + time.Duration(c.cfg.CollectGrace)
	res, err := c.runner.Run(ctx, bound, argv...)
	if err != nil {
		log.WithError(err).Error("collection command could not be issued")
		return false
	}
	if res.ExitCode != 0 {
		log.WithField("status", res.ExitCode).Warn("collection command reported failure, checking archive anyway")
	}

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		log.Error("archive not created")
		return false
	}

	total, err := TreeSize(target)
	if err != nil {
		log.WithError(err).Error("failed to measure archive")
		return false
	}
	if total < c.cfg.MinArchiveBytes {
		log.WithField("size", total).Errorf("archive too small (%d MB)", total/1024/1024)
		return false
	}

	log.Infof("archive collected: ~%d MB", total/1024/1024)
	return true
}

// TreeSize returns the recursive sum of regular-file sizes under root,
// at any nesting depth. Directories, symlinks and other non-regular
// entries contribute nothing.
func TreeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
