package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const sweepSpec = "0 */30 * * * *"

type Scheduler struct {
	cron    *cron.Cron
	tempDir string
	maxAge  time.Duration
	log     zerolog.Logger
}

func NewScheduler(tempDir string, maxAge time.Duration, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:    c,
		tempDir: tempDir,
		maxAge:  maxAge,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if s.tempDir == "" || s.maxAge <= 0 {
		return nil
	}

	if _, err := s.cron.AddFunc(sweepSpec, s.sweepTemp); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop returns a context that is done once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweepTemp() {
	removed, err := SweepTempDir(s.tempDir, s.maxAge, time.Now())
	if err != nil {
		s.log.Error().Err(err).Str("dir", s.tempDir).Msg("temp sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Str("dir", s.tempDir).Msg("stale uploads removed")
	}
}

// SweepTempDir deletes regular files in dir last modified before now-maxAge.
// Subdirectories are left alone.
func SweepTempDir(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read temp dir: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
