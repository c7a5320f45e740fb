package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the job service's dashboard counters",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	st, err := service.Stats(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Today\t%d\n", st.TotalToday)
	fmt.Fprintf(tw, "All time\t%d\n", st.TotalAll)
	fmt.Fprintf(tw, "Good\t%d\n", st.Good)
	fmt.Fprintf(tw, "Risky\t%d\n", st.Risky)
	fmt.Fprintf(tw, "Invalid\t%d\n", st.Invalid)
	return tw.Flush()
}
