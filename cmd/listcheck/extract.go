package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listcheck/internal/core"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract emails from pasted website lines, one request per line",
	Long:  "Reads one website per line from --lines-file (or stdin with -) and writes email,domain,site lines. Lines not starting with http are skipped.",
	RunE:  runExtract,
}

var (
	extractLinesFile string
	extractOut       string
)

func init() {
	extractCmd.Flags().StringVarP(&extractLinesFile, "lines-file", "l", "-", "File with one website per line, - for stdin")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Output CSV path (default: stdout)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	var (
		text []byte
		err  error
	)
	if extractLinesFile == "-" {
		text, err = io.ReadAll(cmd.InOrStdin())
	} else {
		text, err = os.ReadFile(extractLinesFile)
	}
	if err != nil {
		return fmt.Errorf("read lines: %w", err)
	}

	res, _, err := service.Workspace(cliWorkspace).RunBatch(cmd.Context(), core.ModeExtract, string(text))
	if err != nil && len(res.Items) == 0 {
		return err
	}
	if err != nil {
		// Partial results are still written.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", core.FormatUserError(err))
	}

	w, closeOut, err := output(cmd, extractOut)
	if err != nil {
		return err
	}
	if err := core.EncodeLocalCSV(w, res.ExtractedRows()); err != nil {
		closeOut()
		return fmt.Errorf("write csv: %w", err)
	}
	fmt.Fprintln(w)
	return closeOut()
}
