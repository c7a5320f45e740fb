package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listcheck/internal/backend"
	"github.com/JonMunkholm/listcheck/internal/config"
	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/logging"
)

// cliWorkspace is the single workspace a CLI run uses.
const cliWorkspace = "cli"

// service is built by setup before any subcommand runs.
var service *core.Service

func setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	client, err := backend.New(cfg.Backend.URL, backend.Options{
		Timeout:   cfg.Backend.Timeout,
		UserAgent: cfg.Backend.UserAgent,
	})
	if err != nil {
		return err
	}

	service = core.NewService(client, nil, nil, core.Options{
		PreviewRows:   cfg.Upload.PreviewRows,
		MaxFileSize:   cfg.Upload.MaxFileSize,
		Background:    cfg.Upload.Background,
		PageSize:      cfg.Results.PageSize,
		LocalPageSize: cfg.Results.LocalPageSize,
		BatchWorkers:  cfg.Batch.Workers,
		BatchMaxLines: cfg.Batch.MaxLines,
	})
	return nil
}

// submitFile drives a file through the session: accept, optional column
// override, confirm. Session errors come back as queued events; the first
// one is returned.
func submitFile(ctx context.Context, path, column string, mode core.Mode) (*core.Workspace, *core.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	ws := service.Workspace(cliWorkspace)
	ws.Accept(core.UploadFile{Name: filepath.Base(path), Data: data}, mode)
	if err := firstError(ws); err != nil {
		return nil, nil, err
	}

	if column != "" {
		ws.SelectColumn(column)
		if err := firstError(ws); err != nil {
			return nil, nil, err
		}
	}

	snap := ws.Confirm(ctx)
	if err := firstError(ws); err != nil {
		return nil, nil, err
	}
	if snap.Submission == nil {
		return nil, nil, fmt.Errorf("submission did not complete (state %s)", snap.State)
	}
	return ws, snap.Submission, nil
}

func firstError(ws *core.Workspace) error {
	for _, ev := range ws.Events() {
		if ev.Kind != core.EventError {
			continue
		}
		if ev.Err != nil {
			return errors.New(core.FormatUserError(ev.Err))
		}
		return errors.New(ev.Message)
	}
	return nil
}

// output opens path for writing, or returns stdout for "" and "-".
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
