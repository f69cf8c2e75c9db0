// internal/store/codec.go
package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"loan-desk/internal/models"
)

// MinColumns is the number of leading columns a line needs before it is
// decoded at all: id, status, submission date, completed sections.
const MinColumns = 4

const (
	loanTupleWidth      = 6
	referenceTupleWidth = 5
)

// Column positions used by in-place status updates.
const (
	colID              = 0
	colStatus          = 1
	colRejectionReason = 26
	colLoanCount       = 27
)

var ErrTooFewColumns = errors.New("record has too few columns")

// DecodeReport lists what a tolerant decode could not restore exactly.
type DecodeReport struct {
	Skipped  []string
	Warnings []string
}

// Clean reports whether the line decoded with nothing skipped or defaulted.
func (r DecodeReport) Clean() bool {
	return len(r.Skipped) == 0 && len(r.Warnings) == 0
}

// column describes one fixed-position field. decode may assign a best-effort
// value and still return an error, which is surfaced as a warning.
type column struct {
	name   string
	encode func(c *Codec, a *models.Application) string
	decode func(a *models.Application, raw string) error
}

// header is the fixed leading part of every record, in on-disk order.
var header = []column{
	{"id",
		func(c *Codec, a *models.Application) string { return c.text(a.ID) },
		func(a *models.Application, raw string) error { a.ID = raw; return nil }},
	{"status",
		func(c *Codec, a *models.Application) string { return c.text(string(a.Status)) },
		decodeStatus},
	{"submissionDate",
		func(c *Codec, a *models.Application) string { return c.text(a.SubmissionDate) },
		func(a *models.Application, raw string) error { a.SubmissionDate = raw; return nil }},
	{"completedSections",
		func(c *Codec, a *models.Application) string { return a.CompletedSectionsString() },
		decodeSections},
	{"fullName",
		func(c *Codec, a *models.Application) string { return c.text(a.FullName) },
		func(a *models.Application, raw string) error { a.FullName = raw; return nil }},
	{"fathersName",
		func(c *Codec, a *models.Application) string { return c.text(a.FathersName) },
		func(a *models.Application, raw string) error { a.FathersName = raw; return nil }},
	{"postalAddress",
		func(c *Codec, a *models.Application) string { return c.text(a.PostalAddress) },
		func(a *models.Application, raw string) error { a.PostalAddress = raw; return nil }},
	{"contactNumber",
		func(c *Codec, a *models.Application) string { return c.text(a.ContactNumber) },
		func(a *models.Application, raw string) error { a.ContactNumber = raw; return nil }},
	{"email",
		func(c *Codec, a *models.Application) string { return c.text(a.Email) },
		func(a *models.Application, raw string) error { a.Email = raw; return nil }},
	{"cnic",
		func(c *Codec, a *models.Application) string { return c.text(a.CNIC) },
		func(a *models.Application, raw string) error { a.CNIC = raw; return nil }},
	{"cnicExpiryDate",
		func(c *Codec, a *models.Application) string { return c.text(a.CNICExpiryDate) },
		func(a *models.Application, raw string) error { a.CNICExpiryDate = raw; return nil }},
	{"employmentStatus",
		func(c *Codec, a *models.Application) string { return c.text(string(a.EmploymentStatus)) },
		func(a *models.Application, raw string) error { a.EmploymentStatus = models.EmploymentStatus(raw); return nil }},
	{"maritalStatus",
		func(c *Codec, a *models.Application) string { return c.text(string(a.MaritalStatus)) },
		func(a *models.Application, raw string) error { a.MaritalStatus = models.MaritalStatus(raw); return nil }},
	{"gender",
		func(c *Codec, a *models.Application) string { return c.text(string(a.Gender)) },
		func(a *models.Application, raw string) error { a.Gender = models.Gender(raw); return nil }},
	{"dependents",
		func(c *Codec, a *models.Application) string { return strconv.Itoa(a.Dependents) },
		func(a *models.Application, raw string) error { return parseInt(raw, &a.Dependents) }},
	{"annualIncome",
		func(c *Codec, a *models.Application) string { return money(a.AnnualIncome) },
		func(a *models.Application, raw string) error { return parseMoney(raw, &a.AnnualIncome) }},
	{"avgElectricityBill",
		func(c *Codec, a *models.Application) string { return money(a.AvgElectricityBill) },
		func(a *models.Application, raw string) error { return parseMoney(raw, &a.AvgElectricityBill) }},
	{"currentElectricityBill",
		func(c *Codec, a *models.Application) string { return money(a.CurrentElectricityBill) },
		func(a *models.Application, raw string) error { return parseMoney(raw, &a.CurrentElectricityBill) }},
	{"loanType",
		func(c *Codec, a *models.Application) string { return c.text(a.LoanType) },
		func(a *models.Application, raw string) error { a.LoanType = raw; return nil }},
	{"loanCategory",
		func(c *Codec, a *models.Application) string { return c.text(a.LoanCategory) },
		func(a *models.Application, raw string) error { a.LoanCategory = raw; return nil }},
	{"loanAmount",
		func(c *Codec, a *models.Application) string { return money(a.LoanAmount) },
		func(a *models.Application, raw string) error { return parseMoney(raw, &a.LoanAmount) }},
	{"downPayment",
		func(c *Codec, a *models.Application) string { return money(a.DownPayment) },
		func(a *models.Application, raw string) error { return parseMoney(raw, &a.DownPayment) }},
	{"installmentMonths",
		func(c *Codec, a *models.Application) string { return strconv.Itoa(a.InstallmentMonths) },
		func(a *models.Application, raw string) error { return parseInt(raw, &a.InstallmentMonths) }},
	{"monthlyPayment",
		func(c *Codec, a *models.Application) string { return money(a.MonthlyPayment) },
		func(a *models.Application, raw string) error { return parseMoney(raw, &a.MonthlyPayment) }},
	{"installmentStartMonth",
		func(c *Codec, a *models.Application) string { return strconv.Itoa(a.InstallmentStartMonth) },
		func(a *models.Application, raw string) error { return parseInt(raw, &a.InstallmentStartMonth) }},
	{"installmentStartYear",
		func(c *Codec, a *models.Application) string { return strconv.Itoa(a.InstallmentStartYear) },
		func(a *models.Application, raw string) error { return parseInt(raw, &a.InstallmentStartYear) }},
	{"rejectionReason",
		func(c *Codec, a *models.Application) string { return c.text(a.RejectionReason) },
		func(a *models.Application, raw string) error { a.RejectionReason = raw; return nil }},
}

var loanFields = []string{"isActive", "totalAmount", "amountReturned", "amountDue", "bankName", "loanCategory"}

var referenceFields = []string{"name", "cnic", "cnicIssueDate", "phoneNumber", "email"}

// Codec maps an Application to and from one delimited line. It is the only
// encode/decode path for the record file.
type Codec struct {
	delim rune
}

func NewCodec(delim rune) *Codec {
	return &Codec{delim: delim}
}

func (c *Codec) Delimiter() string {
	return string(c.delim)
}

// Encode renders app as a single line without a trailing newline.
func (c *Codec) Encode(app *models.Application) string {
	fields := make([]string, 0, len(header)+1+len(app.ExistingLoans)*loanTupleWidth+2*referenceTupleWidth+len(models.DocumentKinds))
	for _, col := range header {
		fields = append(fields, col.encode(c, app))
	}

	fields = append(fields, strconv.Itoa(len(app.ExistingLoans)))
	for _, l := range app.ExistingLoans {
		fields = append(fields,
			boolFlag(l.IsActive),
			money(l.TotalAmount),
			money(l.AmountReturned),
			money(l.AmountDue),
			c.text(l.BankName),
			c.text(l.LoanCategory),
		)
	}

	for _, r := range app.References {
		fields = append(fields,
			c.text(r.Name),
			c.text(r.CNIC),
			c.text(r.CNICIssueDate),
			c.text(r.PhoneNumber),
			c.text(r.Email),
		)
	}

	for _, kind := range models.DocumentKinds {
		fields = append(fields, c.text(app.Documents.Path(kind)))
	}
	return strings.Join(fields, c.Delimiter())
}

// Split breaks a line into trimmed fields.
func (c *Codec) Split(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), c.Delimiter())
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// Decode restores an Application from line. Missing trailing columns are
// defaulted and listed in the report; unparsable numeric columns are zeroed
// and reported as warnings. Only a line shorter than MinColumns fails.
func (c *Codec) Decode(line string) (*models.Application, DecodeReport, error) {
	var report DecodeReport
	fields := c.Split(line)
	if len(fields) < MinColumns {
		return nil, report, fmt.Errorf("%w: got %d, need %d", ErrTooFewColumns, len(fields), MinColumns)
	}

	app := &models.Application{}
	for i, col := range header {
		if i >= len(fields) {
			report.Skipped = append(report.Skipped, col.name)
			continue
		}
		if err := col.decode(app, fields[i]); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", col.name, err))
		}
	}

	pos := len(header)
	if pos >= len(fields) {
		report.Skipped = append(report.Skipped, "existingLoans")
		c.decodeReferences(app, fields, pos, &report)
		return app, report, nil
	}

	count := 0
	if err := parseInt(fields[pos], &count); err != nil || count < 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("existingLoanCount: invalid value %q", fields[pos]))
		count = 0
	}
	pos++

	for i := 0; i < count; i++ {
		if pos+loanTupleWidth > len(fields) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("existingLoans: record declares %d loans but only %d are complete", count, i))
			pos = len(fields)
			break
		}
		app.ExistingLoans = append(app.ExistingLoans, decodeLoan(i, fields[pos:pos+loanTupleWidth], &report))
		pos += loanTupleWidth
	}

	c.decodeReferences(app, fields, pos, &report)
	return app, report, nil
}

func (c *Codec) decodeReferences(app *models.Application, fields []string, pos int, report *DecodeReport) {
	for r := 0; r < 2; r++ {
		for _, name := range referenceFields {
			if pos >= len(fields) {
				report.Skipped = append(report.Skipped, fmt.Sprintf("reference%d.%s", r+1, name))
				pos++
				continue
			}
			raw := fields[pos]
			ref := &app.References[r]
			switch name {
			case "name":
				ref.Name = raw
			case "cnic":
				ref.CNIC = raw
			case "cnicIssueDate":
				ref.CNICIssueDate = raw
			case "phoneNumber":
				ref.PhoneNumber = raw
			case "email":
				ref.Email = raw
			}
			pos++
		}
	}

	for _, kind := range models.DocumentKinds {
		if pos >= len(fields) {
			report.Skipped = append(report.Skipped, string(kind))
			pos++
			continue
		}
		app.Documents.Set(kind, fields[pos])
		pos++
	}
}

func decodeLoan(index int, f []string, report *DecodeReport) models.ExistingLoan {
	var l models.ExistingLoan
	l.IsActive = parseBool(f[0])
	for i, dst := range []*float64{&l.TotalAmount, &l.AmountReturned, &l.AmountDue} {
		if err := parseMoney(f[i+1], dst); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("loan%d.%s: %v", index+1, loanFields[i+1], err))
		}
	}
	l.BankName = f[4]
	l.LoanCategory = f[5]
	return l
}

func decodeStatus(a *models.Application, raw string) error {
	s, ok := models.ParseStatus(raw)
	if !ok {
		a.Status = models.Status(raw)
		return fmt.Errorf("unknown status %q", raw)
	}
	a.Status = s
	return nil
}

func decodeSections(a *models.Application, raw string) error {
	sections, unknown := models.ParseCompletedSections(raw)
	a.CompletedSections = sections
	if len(unknown) > 0 {
		return fmt.Errorf("unknown sections %s", strings.Join(unknown, ","))
	}
	return nil
}

// text sanitizes a free-text value so it cannot break the line structure.
func (c *Codec) text(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == c.delim || r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// parseInt leaves dst at zero for an empty field.
func parseInt(raw string, dst *int) error {
	*dst = 0
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q", raw)
	}
	*dst = n
	return nil
}

func parseMoney(raw string, dst *float64) error {
	*dst = 0
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", raw)
	}
	*dst = v
	return nil
}
