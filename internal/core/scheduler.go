package core

// scheduler.go runs background maintenance for a long-lived server:
//  1. Purge job history entries older than the retention period
//  2. Drop workspaces nobody has touched within the workspace TTL
//
// Each task logs its own failures and never stops the loop.

import (
	"context"
	"log/slog"
	"time"
)

// MaintenanceConfig holds the maintenance schedule. Zero values fall back
// to the defaults noted per field.
type MaintenanceConfig struct {
	RetentionDays int           // History retention (default: 90)
	PurgeInterval time.Duration // How often history is purged (default: 24h)
	SweepInterval time.Duration // How often idle workspaces are dropped (default: 10m)
}

func (c MaintenanceConfig) withDefaults() MaintenanceConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.PurgeInterval <= 0 {
		c.PurgeInterval = 24 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 10 * time.Minute
	}
	return c
}

// StartMaintenance runs until ctx is cancelled. History is purged once at
// start, then every PurgeInterval.
func (s *Service) StartMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	cfg = cfg.withDefaults()
	slog.Info("maintenance scheduler started",
		"retention_days", cfg.RetentionDays,
		"purge_interval", cfg.PurgeInterval,
		"sweep_interval", cfg.SweepInterval,
	)

	s.purgeHistory(ctx, cfg.RetentionDays)

	purge := time.NewTicker(cfg.PurgeInterval)
	defer purge.Stop()
	sweep := time.NewTicker(cfg.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance scheduler stopped")
			return
		case <-purge.C:
			s.purgeHistory(ctx, cfg.RetentionDays)
		case now := <-sweep.C:
			if n := s.SweepWorkspaces(now); n > 0 {
				slog.Info("dropped idle workspaces", "count", n, "remaining", s.WorkspaceCount())
			}
		}
	}
}

// purgeHistory removes history entries older than retentionDays.
func (s *Service) purgeHistory(ctx context.Context, retentionDays int) {
	if s.history == nil {
		return
	}

	start := time.Now()
	cutoff := start.AddDate(0, 0, -retentionDays)
	purged, err := s.history.Purge(ctx, cutoff)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return
	}
	slog.Info("purged job history",
		"entries_purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
