package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// OverdueMarker is the engine operation the sweeper drives.
type OverdueMarker interface {
	MarkOverdueNoShows(ctx context.Context, now time.Time, grace time.Duration) (int, error)
}

// NoShowSweeper periodically moves appointments whose end has passed by
// more than Grace to no-show.
type NoShowSweeper struct {
	Marker   OverdueMarker
	Interval time.Duration
	Grace    time.Duration
	Timeout  time.Duration
	Logger   *logrus.Logger
	Now      func() time.Time
}

// Run sweeps once at startup and then on every tick until ctx is done.
func (s *NoShowSweeper) Run(ctx context.Context) {
	log := s.logger()
	log.WithFields(logrus.Fields{
		"interval": s.Interval.String(),
		"grace":    s.Grace.String(),
	}).Info("no-show sweeper starting")

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("no-show sweeper stopping")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns how many appointments moved.
func (s *NoShowSweeper) RunOnce(ctx context.Context) int {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	start := time.Now()
	n, err := s.Marker.MarkOverdueNoShows(runCtx, now(), s.Grace)
	if err != nil {
		s.logger().WithError(err).Error("no-show sweep failed")
		return 0
	}

	entry := s.logger().WithFields(logrus.Fields{
		"marked":   n,
		"duration": time.Since(start).String(),
	})
	if n > 0 {
		entry.Info("no-show sweep complete")
	} else {
		entry.Debug("no-show sweep complete")
	}
	return n
}

func (s *NoShowSweeper) logger() *logrus.Entry {
	l := s.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithField("component", "noshow-sweeper")
}
