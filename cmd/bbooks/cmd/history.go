package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shweproperty/buildingbooks/pkg/history"
)

var (
	historyLimit int
	historyStats bool
)

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the local posting history",
	Long: `Show the locally recorded posting history: every credit, discount,
and payment committed from this machine.

Example:
  bbooks history --limit 20
  bbooks history --stats`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "number of postings to show")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show aggregate statistics instead")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig("local.dataDir")

	conn, err := history.Open(cfg.HistoryPath())
	exitOnError(err, "failed to open posting history")
	defer conn.Close()

	recorder := history.NewRecorder(conn)

	if historyStats {
		stats, err := recorder.GetStats()
		exitOnError(err, "failed to get statistics")

		fmt.Println("\n=== Posting Statistics ===")
		fmt.Printf("Credits applied:    %d\n", stats.TotalCredits)
		fmt.Printf("Discounts applied:  %d\n", stats.TotalDiscounts)
		fmt.Printf("Payments recorded:  %d\n", stats.TotalPayments)
		if stats.LastPosting.Valid {
			fmt.Printf("Last posting:       %s\n", stats.LastPosting.String)
		} else {
			fmt.Printf("Last posting:       (never)\n")
		}
		fmt.Println()
		return
	}

	postings, err := recorder.List(historyLimit)
	exitOnError(err, "failed to list postings")

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tWORKFLOW\tINVOICE\tAMOUNT\tDATE\tREFERENCE")
	for _, p := range postings {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%s\n",
			p.RecordedAt.Format("2006-01-02 15:04"), p.Workflow, p.InvoiceID,
			p.Amount, p.PostingDate, p.Reference)
	}
	_ = tw.Flush()
}
