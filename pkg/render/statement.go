package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shweproperty/buildingbooks/pkg/invoice"
)

// NameLookup resolves entity ids to display names, falling back to "ID: n"
// placeholders when reference data is unavailable.
type NameLookup interface {
	AccountName(id int64) string
	UnitName(id int64) string
	PeopleName(id int64) string
}

// Statement writes a printable statement to w.
func Statement(w io.Writer, profile *CompanyProfile, stmt *invoice.Statement, names NameLookup) error {
	if profile == nil {
		profile = DefaultProfile()
	}
	inv := stmt.Invoice

	if profile.Name != "" {
		fmt.Fprintln(w, profile.Name)
	}
	if profile.Address != "" {
		fmt.Fprintln(w, profile.Address)
	}
	if profile.Phone != "" {
		fmt.Fprintln(w, profile.Phone)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "INVOICE %s\n", inv.InvoiceNo)
	fmt.Fprintf(w, "Date: %s", inv.SalesDate)
	if inv.DueDate != "" {
		fmt.Fprintf(w, "    Due: %s", inv.DueDate)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Unit: %s\n", names.UnitName(inv.UnitID))
	fmt.Fprintf(w, "Customer: %s\n", names.PeopleName(inv.PeopleID))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPREV\tCURR\tQTY\tRATE\tTOTAL")
	for _, item := range stmt.Items {
		if !item.Status.Active() {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			item.ItemName, item.PreviousValue.Float(), item.CurrentValue.Float(),
			item.Qty.Float(), item.Rate.Float(), item.Total.Float())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	cur := profile.Currency
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Invoice amount\t%s %.2f\n", cur, inv.Amount.Float())
	fmt.Fprintf(tw, "Previous balance\t%s %.2f\n", cur, stmt.PreviousBalance)
	fmt.Fprintf(tw, "Paid\t%s %.2f\n", cur, stmt.PaidAmount)
	fmt.Fprintf(tw, "Applied credits\t%s %.2f\n", cur, stmt.AppliedCreditsTotal)
	fmt.Fprintf(tw, "Applied discounts\t%s %.2f\n", cur, stmt.AppliedDiscountsTotal)
	fmt.Fprintf(tw, "AMOUNT DUE\t%s %.2f\n", cur, stmt.DueAmount)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(stmt.Payments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Payments:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, p := range stmt.Payments {
			if !p.Status.Active() {
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s %.2f\t%s\n",
				p.Date, names.AccountName(p.AccountID), cur, p.Amount.Float(), p.Reference)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if profile.Footer != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, profile.Footer)
	}
	return nil
}
