package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shweproperty/buildingbooks/pkg/api"
)

var (
	creditMemoID      int64
	creditAmount      float64
	creditDescription string
	creditDate        string
	creditYes         bool
)

// applyCreditCmd represents the apply-credit command.
var applyCreditCmd = &cobra.Command{
	Use:   "apply-credit <invoice-id>",
	Short: "Apply a credit memo to an invoice",
	Long: `Apply a credit memo to an invoice. The posting is previewed first:
the splits the backend would create are shown and must be confirmed
before anything is persisted.

Without --memo the invoice's available credit memos are listed.

Example:
  bbooks apply-credit 42 --memo 3 --amount 50000 --description "July credit"`,
	Args: cobra.ExactArgs(1),
	Run:  runApplyCredit,
}

func init() {
	applyCreditCmd.Flags().Int64Var(&creditMemoID, "memo", 0, "credit memo id")
	applyCreditCmd.Flags().Float64Var(&creditAmount, "amount", 0, "amount to apply")
	applyCreditCmd.Flags().StringVar(&creditDescription, "description", "", "posting description")
	applyCreditCmd.Flags().StringVar(&creditDate, "date", "", "posting date (default today)")
	applyCreditCmd.Flags().BoolVar(&creditYes, "yes", false, "commit without prompting")
}

func runApplyCredit(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	exitOnError(err, "invalid invoice id")

	app := newAppContext()
	defer app.close()
	ctx := context.Background()
	app.controller.LoadReference(ctx)

	detail, err := app.controller.InvoiceDetail(ctx, id)
	exitOnError(err, "failed to fetch invoice")

	if creditMemoID == 0 {
		memos, err := app.controller.AvailableCredits(ctx, id)
		exitOnError(err, "failed to list available credits")
		if len(memos) == 0 {
			fmt.Println("No credit memos available for this invoice.")
			return
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MEMO\tNO\tDATE\tAMOUNT\tAVAILABLE")
		for _, m := range memos {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\n",
				m.ID, m.CreditMemoNo, m.Date, m.Amount.Float(), m.AvailableAmount.Float())
		}
		_ = tw.Flush()
		fmt.Println("\nRe-run with --memo and --amount to apply one.")
		return
	}

	runner, form, err := app.controller.CreditWorkflow(detail.Invoice)
	exitOnError(err, "cannot apply a credit to this invoice")

	form.CreditMemoID = creditMemoID
	form.Amount = creditAmount
	form.Description = creditDescription
	if creditDate != "" {
		form.Date = creditDate
	}

	preview, err := runner.RequestPreview(ctx, form)
	exitOnError(err, "preview failed")
	printPreview(app, preview)

	if !confirm(creditYes, "Commit this credit application?") {
		fmt.Println("Aborted; nothing was posted.")
		return
	}

	exitOnError(runner.Commit(ctx, form), "commit failed")
	fmt.Println("Credit applied.")
}

// printPreview renders a dry-run posting for confirmation.
func printPreview(app *appContext, preview *api.SplitsPreview) {
	fmt.Println("\nPosting preview:")
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tDEBIT\tCREDIT")
	for _, split := range preview.Splits {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n",
			app.controller.AccountName(split.AccountID), split.Debit.Float(), split.Credit.Float())
	}
	fmt.Fprintf(tw, "TOTAL\t%.2f\t%.2f\n", preview.TotalDebit.Float(), preview.TotalCredit.Float())
	_ = tw.Flush()
	if !preview.IsBalanced {
		fmt.Println("WARNING: preview is not balanced")
	}
	fmt.Println()
}
