package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	payAccount   int64
	payAmount    float64
	payDate      string
	payReference string
	payYes       bool
)

// payCmd represents the pay command.
var payCmd = &cobra.Command{
	Use:   "pay <invoice-id>",
	Short: "Record a payment against an invoice",
	Long: `Record a payment against an invoice. The posting is previewed and
confirmed before commit.

The payment date is remembered per building: omitting --date reuses the
date of the previous payment, which speeds up entering a day's payments
across many invoices.

Example:
  bbooks pay 42 --account 3 --amount 150000 --reference "bank transfer"`,
	Args: cobra.ExactArgs(1),
	Run:  runPay,
}

func init() {
	payCmd.Flags().Int64Var(&payAccount, "account", 0, "deposit account id")
	payCmd.Flags().Float64Var(&payAmount, "amount", 0, "payment amount")
	payCmd.Flags().StringVar(&payDate, "date", "", "payment date (default: remembered date)")
	payCmd.Flags().StringVar(&payReference, "reference", "", "optional reference")
	payCmd.Flags().BoolVar(&payYes, "yes", false, "commit without prompting")
}

func runPay(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	exitOnError(err, "invalid invoice id")

	app := newAppContext()
	defer app.close()
	ctx := context.Background()
	app.controller.LoadReference(ctx)

	detail, err := app.controller.InvoiceDetail(ctx, id)
	exitOnError(err, "failed to fetch invoice")

	runner, form, err := app.controller.PaymentWorkflow(detail.Invoice)
	exitOnError(err, "cannot record a payment for this invoice")

	form.AccountID = payAccount
	form.Amount = payAmount
	form.Reference = payReference
	if payDate != "" {
		form.Date = payDate
	}

	preview, err := runner.RequestPreview(ctx, form)
	exitOnError(err, "preview failed")
	printPreview(app, preview)

	if !confirm(payYes, fmt.Sprintf("Record %.2f on %s?", form.Amount, form.Date)) {
		fmt.Println("Aborted; nothing was posted.")
		return
	}

	exitOnError(runner.Commit(ctx, form), "commit failed")
	fmt.Println("Payment recorded.")
}
