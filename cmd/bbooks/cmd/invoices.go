package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/controller"
)

var (
	invoicesStart  string
	invoicesEnd    string
	invoicesPeople int64
	invoicesStatus string
)

// invoicesCmd represents the invoices command.
var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List invoices with balances and payment statuses",
	Long: `List the building's invoices with their derived balances, payment
statuses, and available actions.

Filter selections persist per building: running the command again without
flags reuses the last selection. Without any stored selection the current
month is shown.

Example:
  bbooks invoices --start 2026-08-01 --end 2026-08-31 --people 7`,
	Run: runInvoices,
}

func init() {
	invoicesCmd.Flags().StringVar(&invoicesStart, "start", "", "start date (YYYY-MM-DD)")
	invoicesCmd.Flags().StringVar(&invoicesEnd, "end", "", "end date (YYYY-MM-DD)")
	invoicesCmd.Flags().Int64Var(&invoicesPeople, "people", 0, "filter by customer id")
	invoicesCmd.Flags().StringVar(&invoicesStatus, "status", "", "filter by status (1 active, 0 inactive)")
}

func runInvoices(cmd *cobra.Command, args []string) {
	app := newAppContext()
	defer app.close()

	ctx := context.Background()
	app.controller.LoadReference(ctx)

	if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") ||
		cmd.Flags().Changed("people") || cmd.Flags().Changed("status") {
		filters := app.controller.Filters()
		if cmd.Flags().Changed("start") {
			filters.StartDate = invoicesStart
		}
		if cmd.Flags().Changed("end") {
			filters.EndDate = invoicesEnd
		}
		if cmd.Flags().Changed("people") {
			filters.PeopleID = invoicesPeople
		}
		if cmd.Flags().Changed("status") {
			filters.Status = api.Status(invoicesStatus)
		}
		exitOnError(app.controller.SetFilters(ctx, filters), "failed to list invoices")
	} else {
		exitOnError(app.controller.RefreshInvoices(ctx), "failed to list invoices")
	}

	filters := app.controller.Filters()
	fmt.Printf("Invoices %s .. %s\n\n", filters.StartDate, filters.EndDate)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tINVOICE\tDATE\tUNIT\tCUSTOMER\tAMOUNT\tBALANCE\tSTATUS\tACTIONS")
	for _, row := range app.controller.Rows() {
		inv := row.Invoice
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			inv.ID, inv.InvoiceNo, inv.SalesDate,
			app.controller.UnitName(inv.UnitID),
			app.controller.PeopleName(inv.PeopleID),
			inv.Amount.Float(), row.Balance, row.PaymentStatus,
			joinActions(row.Actions))
	}
	_ = tw.Flush()
}

func joinActions(actions []controller.Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, ",")
}
