package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listcheck/internal/core"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show one page of a job's results",
	RunE:  runResults,
}

var (
	resultsJobID  string
	resultsPage   int
	resultsQuery  string
	resultsStatus string
	resultsJSON   bool
)

func init() {
	resultsCmd.Flags().StringVarP(&resultsJobID, "job", "j", "", "Job id (required)")
	resultsCmd.Flags().IntVarP(&resultsPage, "page", "p", 1, "Page number")
	resultsCmd.Flags().StringVarP(&resultsQuery, "q", "q", "", "Filter this page by email substring")
	resultsCmd.Flags().StringVarP(&resultsStatus, "status", "s", core.StatusAny, "Filter this page by status: any, valid, invalid, accept_all")
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "Print the page as JSON")

	if err := resultsCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}

	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, _ []string) error {
	view, err := service.Results(cmd.Context(), resultsJobID, resultsPage, core.Filter{
		Query:  resultsQuery,
		Status: resultsStatus,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resultsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	p := view.Page
	fmt.Fprintf(out, "%s  page %d of %d  total %d  valid %d  invalid %d  accept all %d\n",
		p.FileName, p.Page, view.TotalPages, p.Total, p.Valid, p.Invalid, p.AcceptAll)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tSTATUS\tREASON")
	for _, row := range view.Rows {
		switch r := row.(type) {
		case core.VerificationRow:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Email, core.StatusBadge(r.Status).Text, r.Reason)
		case core.ExtractedRow:
			fmt.Fprintf(tw, "%s\t\t%s\n", r.Email, r.Site)
		}
	}
	return tw.Flush()
}
