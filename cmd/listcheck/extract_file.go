package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listcheck/internal/core"
)

var extractFileCmd = &cobra.Command{
	Use:   "extract-file",
	Short: "Extract emails from the websites listed in a CSV/TXT file",
	Long:  "Detects the website column (or uses --column), submits the file and writes email,domain,site lines.",
	RunE:  runExtractFile,
}

var (
	extractFilePath   string
	extractFileColumn string
	extractFileOut    string
)

func init() {
	extractFileCmd.Flags().StringVarP(&extractFilePath, "file", "f", "", "Path to the .csv or .txt list (required)")
	extractFileCmd.Flags().StringVarP(&extractFileColumn, "column", "c", "", "Website column (default: detected)")
	extractFileCmd.Flags().StringVarP(&extractFileOut, "out", "o", "", "Output CSV path (default: stdout)")

	if err := extractFileCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(extractFileCmd)
}

func runExtractFile(cmd *cobra.Command, _ []string) error {
	ws, sub, err := submitFile(cmd.Context(), extractFilePath, extractFileColumn, core.ModeExtract)
	if err != nil {
		return err
	}
	set, err := ws.LocalSet(sub.LocalHandle)
	if err != nil {
		return err
	}

	w, closeOut, err := output(cmd, extractFileOut)
	if err != nil {
		return err
	}
	if err := core.EncodeLocalCSV(w, set.Rows); err != nil {
		closeOut()
		return fmt.Errorf("write csv: %w", err)
	}
	fmt.Fprintln(w)
	return closeOut()
}
