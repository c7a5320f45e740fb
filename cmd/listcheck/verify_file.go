package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listcheck/internal/core"
)

var verifyFileCmd = &cobra.Command{
	Use:   "verify-file",
	Short: "Submit a CSV/TXT list for bulk email verification",
	Long:  "Detects the email column (or uses --column), submits the file and prints the job id.",
	RunE:  runVerifyFile,
}

var (
	verifyFilePath   string
	verifyFileColumn string
)

func init() {
	verifyFileCmd.Flags().StringVarP(&verifyFilePath, "file", "f", "", "Path to the .csv or .txt list (required)")
	verifyFileCmd.Flags().StringVarP(&verifyFileColumn, "column", "c", "", "Email column (default: detected)")

	if err := verifyFileCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(verifyFileCmd)
}

func runVerifyFile(cmd *cobra.Command, _ []string) error {
	_, sub, err := submitFile(cmd.Context(), verifyFilePath, verifyFileColumn, core.ModeVerify)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sub.JobID)
	return nil
}
