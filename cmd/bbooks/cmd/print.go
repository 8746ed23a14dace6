package cmd

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shweproperty/buildingbooks/pkg/render"
)

// printCmd represents the print command.
var printCmd = &cobra.Command{
	Use:   "print <invoice-id>",
	Short: "Print an invoice statement",
	Long: `Render a printable statement for one invoice: company letterhead,
line items, previous balance carried over from the unit's older unpaid
invoices, and the amount due.

The letterhead comes from the YAML company profile named by
BBOOKS_COMPANY_PROFILE; without one a generic letterhead is used.

Example:
  bbooks print 42`,
	Args: cobra.ExactArgs(1),
	Run:  runPrint,
}

func runPrint(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	exitOnError(err, "invalid invoice id")

	app := newAppContext()
	defer app.close()
	ctx := context.Background()
	app.controller.LoadReference(ctx)

	profile := render.DefaultProfile()
	if path := app.cfg.Local.CompanyProfile; path != "" {
		loaded, err := render.LoadProfile(path)
		if err != nil {
			slog.Warn("failed to load company profile, using default", "path", path, "error", err)
		} else {
			profile = loaded
		}
	}

	stmt, err := app.controller.Statement(ctx, id)
	exitOnError(err, "failed to assemble statement")

	exitOnError(render.Statement(os.Stdout, profile, stmt, app.controller), "failed to render statement")
}
