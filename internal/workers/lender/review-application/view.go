// internal/workers/lender/review-application/view.go
package reviewapplication

import (
	"fmt"
	"io"
	"text/tabwriter"

	"loan-desk/internal/models"
)

// WriteTable prints one row per application.
func WriteTable(w io.Writer, apps []*models.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(w, "No applications found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tNAME\tCNIC\tLOAN\tAMOUNT\tSUBMITTED")
	for _, app := range apps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			app.ID, app.Status, dash(app.FullName), dash(app.CNIC), dash(app.LoanType), app.LoanAmount, dash(app.SubmissionDate))
	}
	tw.Flush()
}

// WriteDetails prints the full record of one application.
func WriteDetails(w io.Writer, app *models.Application) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label string, format string, args ...interface{}) {
		fmt.Fprintf(tw, "%s\t%s\n", label, fmt.Sprintf(format, args...))
	}

	fmt.Fprintf(tw, "\nApplication %s\n", app.ID)
	row("Status:", "%s", app.Status)
	row("Submitted:", "%s", dash(app.SubmissionDate))
	row("Sections:", "%s", dash(app.CompletedSectionsString()))
	row("Name:", "%s", app.FullName)
	row("Father's name:", "%s", app.FathersName)
	row("CNIC:", "%s (expires %s)", app.CNIC, app.CNICExpiryDate)
	row("Contact:", "%s, %s", app.ContactNumber, app.Email)
	row("Address:", "%s", app.PostalAddress)
	row("Employment:", "%s, %s, %s, %d dependents", app.EmploymentStatus, app.MaritalStatus, app.Gender, app.Dependents)
	row("Annual income:", "%.2f", app.AnnualIncome)
	row("Electricity bill:", "avg %.2f, current %.2f", app.AvgElectricityBill, app.CurrentElectricityBill)
	row("Loan:", "%s %s, amount %.2f, down %.2f", app.LoanType, app.LoanCategory, app.LoanAmount, app.DownPayment)
	row("Installments:", "%d x %.2f from %02d-%d", app.InstallmentMonths, app.MonthlyPayment, app.InstallmentStartMonth, app.InstallmentStartYear)
	for i, l := range app.ExistingLoans {
		active := "closed"
		if l.IsActive {
			active = "active"
		}
		row(fmt.Sprintf("Existing loan %d:", i+1), "%s %s, total %.2f, returned %.2f, due %.2f (%s)",
			l.BankName, l.LoanCategory, l.TotalAmount, l.AmountReturned, l.AmountDue, active)
	}
	for i, r := range app.References {
		row(fmt.Sprintf("Reference %d:", i+1), "%s, CNIC %s, %s, %s", r.Name, r.CNIC, r.PhoneNumber, r.Email)
	}
	for _, kind := range models.DocumentKinds {
		row(string(kind)+":", "%s", dash(app.Documents.Path(kind)))
	}
	if app.RejectionReason != "" {
		row("Rejection reason:", "%s", app.RejectionReason)
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
