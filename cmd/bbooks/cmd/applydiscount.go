package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	discountARAccount     int64
	discountIncomeAccount int64
	discountAmount        float64
	discountDescription   string
	discountDate          string
	discountReference     string
	discountYes           bool
)

// applyDiscountCmd represents the apply-discount command.
var applyDiscountCmd = &cobra.Command{
	Use:   "apply-discount <invoice-id>",
	Short: "Apply a discount to an invoice",
	Long: `Apply a discount to an invoice. The AR account defaults to the
invoice's own AR account; the income account names the contra-revenue
side. The posting is previewed and confirmed before commit.

Example:
  bbooks apply-discount 42 --income-account 5 --amount 10000 --description "Loyalty discount"`,
	Args: cobra.ExactArgs(1),
	Run:  runApplyDiscount,
}

func init() {
	applyDiscountCmd.Flags().Int64Var(&discountARAccount, "ar-account", 0, "AR account id (default: the invoice's)")
	applyDiscountCmd.Flags().Int64Var(&discountIncomeAccount, "income-account", 0, "income account id")
	applyDiscountCmd.Flags().Float64Var(&discountAmount, "amount", 0, "discount amount")
	applyDiscountCmd.Flags().StringVar(&discountDescription, "description", "", "posting description")
	applyDiscountCmd.Flags().StringVar(&discountDate, "date", "", "posting date (default today)")
	applyDiscountCmd.Flags().StringVar(&discountReference, "reference", "", "optional reference")
	applyDiscountCmd.Flags().BoolVar(&discountYes, "yes", false, "commit without prompting")
}

func runApplyDiscount(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	exitOnError(err, "invalid invoice id")

	app := newAppContext()
	defer app.close()
	ctx := context.Background()
	app.controller.LoadReference(ctx)

	detail, err := app.controller.InvoiceDetail(ctx, id)
	exitOnError(err, "failed to fetch invoice")

	runner, form, err := app.controller.DiscountWorkflow(detail.Invoice)
	exitOnError(err, "cannot apply a discount to this invoice")

	if discountARAccount != 0 {
		form.ARAccountID = discountARAccount
	}
	form.IncomeAccountID = discountIncomeAccount
	form.Amount = discountAmount
	form.Description = discountDescription
	form.Reference = discountReference
	if discountDate != "" {
		form.Date = discountDate
	}

	preview, err := runner.RequestPreview(ctx, form)
	exitOnError(err, "preview failed")
	printPreview(app, preview)

	if !confirm(discountYes, "Commit this discount?") {
		fmt.Println("Aborted; nothing was posted.")
		return
	}

	exitOnError(runner.Commit(ctx, form), "commit failed")
	fmt.Println("Discount applied.")
}
