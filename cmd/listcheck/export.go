package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listcheck/internal/core"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a job's CSV export",
	RunE:  runExport,
}

var (
	exportJobID string
	exportType  string
	exportOut   string
)

func init() {
	exportCmd.Flags().StringVarP(&exportJobID, "job", "j", "", "Job id (required)")
	exportCmd.Flags().StringVarP(&exportType, "type", "t", string(core.ExportAll), "Rows to export: all, valid, invalid, accept_all")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: results-<type>-<job>.csv, - for stdout)")

	if err := exportCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	t, err := core.ParseExportType(exportType)
	if err != nil {
		return err
	}

	path := exportOut
	if path == "" {
		path = core.ExportFileName(t, exportJobID)
	}
	w, closeOut, err := output(cmd, path)
	if err != nil {
		return err
	}

	n, err := service.Export(cmd.Context(), exportJobID, t, w)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", n, path)
	}
	return nil
}
