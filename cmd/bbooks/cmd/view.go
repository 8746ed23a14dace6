package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shweproperty/buildingbooks/pkg/invoice"
)

// viewCmd represents the view command.
var viewCmd = &cobra.Command{
	Use:   "view <invoice-id>",
	Short: "Show one invoice's full detail",
	Long: `Show one invoice: header, line items, posted splits, applied credits
and discounts, and payments. Detail is fetched on demand; the list view
never preloads it.`,
	Args: cobra.ExactArgs(1),
	Run:  runView,
}

func runView(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	exitOnError(err, "invalid invoice id")

	app := newAppContext()
	defer app.close()

	ctx := context.Background()
	app.controller.LoadReference(ctx)

	detail, err := app.controller.InvoiceDetail(ctx, id)
	exitOnError(err, "failed to fetch invoice")

	inv := detail.Invoice
	fmt.Printf("Invoice %s (id %d)\n", inv.InvoiceNo, inv.ID)
	fmt.Printf("Date: %s    Unit: %s    Customer: %s\n",
		inv.SalesDate, app.controller.UnitName(inv.UnitID), app.controller.PeopleName(inv.PeopleID))
	fmt.Printf("Amount: %.2f    Paid: %.2f    Credits: %.2f    Discounts: %.2f\n",
		inv.Amount.Float(), inv.PaidAmount.Float(),
		inv.AppliedCreditsTotal.Float(), inv.AppliedDiscountsTotal.Float())
	fmt.Printf("Balance: %.2f    Payment status: %s\n\n",
		invoice.Balance(inv), invoice.ComputePaymentStatus(inv))

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPREV\tCURR\tQTY\tRATE\tTOTAL")
	for _, item := range detail.Items {
		if !item.Status.Active() {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			item.ItemName, item.PreviousValue.Float(), item.CurrentValue.Float(),
			item.Qty.Float(), item.Rate.Float(), item.Total.Float())
	}
	_ = tw.Flush()

	if len(detail.Splits) > 0 {
		fmt.Println("\nSplits:")
		tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCOUNT\tDEBIT\tCREDIT")
		for _, split := range detail.Splits {
			if !split.Status.Active() {
				continue
			}
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n",
				app.controller.AccountName(split.AccountID), split.Debit.Float(), split.Credit.Float())
		}
		_ = tw.Flush()
	}

	credits, err := app.controller.AppliedCredits(ctx, id)
	if err == nil && len(credits) > 0 {
		fmt.Println("\nApplied credits:")
		tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMEMO\tDATE\tAMOUNT\tACTIVE")
		for _, c := range credits {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%v\n",
				c.ID, c.CreditMemoID, c.Date, c.Amount.Float(), c.Status.Active())
		}
		_ = tw.Flush()
	}

	discounts, err := app.controller.AppliedDiscounts(ctx, id)
	if err == nil && len(discounts) > 0 {
		fmt.Println("\nApplied discounts:")
		tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tREFERENCE\tACTIVE")
		for _, d := range discounts {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%v\n",
				d.ID, d.Date, d.Amount.Float(), d.Reference, d.Status.Active())
		}
		_ = tw.Flush()
	}
}
