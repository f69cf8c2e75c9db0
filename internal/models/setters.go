// internal/models/setters.go
package models

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MaxDependents = 20
	MinDateYear   = 1900
	MaxDateYear   = 2100
	CNICLength    = 13
	PhoneLength   = 11
)

var (
	dateRegex   = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
	digitsRegex = regexp.MustCompile(`^\d+$`)
	nameRegex   = regexp.MustCompile(`^[a-zA-Z\s\-'.]{2,100}$`)
	spaceRegex  = regexp.MustCompile(`\s+`)
)

// ValidateDate checks a DD-MM-YYYY date. Day and month are range checked
// independently of each other.
func ValidateDate(field, value string) error {
	m := dateRegex.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return newValidationError(field, CodeInvalidFormat, "date must be in DD-MM-YYYY format")
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 {
		return newValidationError(field, CodeOutOfRange, "day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return newValidationError(field, CodeOutOfRange, "month must be between 1 and 12")
	}
	if year < MinDateYear || year > MaxDateYear {
		return newValidationError(field, CodeOutOfRange, "year must be between %d and %d", MinDateYear, MaxDateYear)
	}
	return nil
}

func ValidateCNIC(field, value string) error {
	value = strings.TrimSpace(value)
	if len(value) != CNICLength || !digitsRegex.MatchString(value) {
		return newValidationError(field, CodeInvalidFormat, "CNIC must be exactly %d digits", CNICLength)
	}
	return nil
}

func ValidatePhone(field, value string) error {
	value = strings.TrimSpace(value)
	if len(value) != PhoneLength || !digitsRegex.MatchString(value) {
		return newValidationError(field, CodeInvalidFormat, "phone number must be exactly %d digits", PhoneLength)
	}
	return nil
}

func ValidateEmail(field, value string) error {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "@") || !strings.Contains(value, ".") {
		return newValidationError(field, CodeInvalidFormat, "email must contain '@' and '.'")
	}
	return nil
}

func validateName(field, value string) (string, error) {
	value = spaceRegex.ReplaceAllString(strings.TrimSpace(value), " ")
	if value == "" {
		return "", newValidationError(field, CodeMissingRequired, "%s is required", field)
	}
	if !nameRegex.MatchString(value) {
		return "", newValidationError(field, CodeInvalidFormat, "must be 2-100 characters: letters, spaces, hyphens, apostrophes or dots")
	}
	return value, nil
}

func validateAmount(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return newValidationError(field, CodeInvalidValue, "must be a finite number")
	}
	if value < 0 {
		return newValidationError(field, CodeOutOfRange, "must not be negative")
	}
	return nil
}

func (a *Application) SetFullName(v string) error {
	name, err := validateName("fullName", v)
	if err != nil {
		return err
	}
	a.FullName = name
	return nil
}

func (a *Application) SetFathersName(v string) error {
	name, err := validateName("fathersName", v)
	if err != nil {
		return err
	}
	a.FathersName = name
	return nil
}

func (a *Application) SetPostalAddress(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return newValidationError("postalAddress", CodeMissingRequired, "postal address is required")
	}
	a.PostalAddress = v
	return nil
}

func (a *Application) SetContactNumber(v string) error {
	if err := ValidatePhone("contactNumber", v); err != nil {
		return err
	}
	a.ContactNumber = strings.TrimSpace(v)
	return nil
}

func (a *Application) SetEmail(v string) error {
	if err := ValidateEmail("email", v); err != nil {
		return err
	}
	a.Email = strings.TrimSpace(v)
	return nil
}

func (a *Application) SetCNIC(v string) error {
	if err := ValidateCNIC("cnic", v); err != nil {
		return err
	}
	a.CNIC = strings.TrimSpace(v)
	return nil
}

func (a *Application) SetCNICExpiryDate(v string) error {
	if err := ValidateDate("cnicExpiryDate", v); err != nil {
		return err
	}
	a.CNICExpiryDate = strings.TrimSpace(v)
	return nil
}

func (a *Application) SetSubmissionDate(v string) error {
	if err := ValidateDate("submissionDate", v); err != nil {
		return err
	}
	a.SubmissionDate = strings.TrimSpace(v)
	return nil
}

func (a *Application) SetStatus(raw string) error {
	s, ok := ParseStatus(raw)
	if !ok {
		return newValidationError("status", CodeInvalidValue, "unknown status %q", raw)
	}
	a.Status = s
	return nil
}

func (a *Application) SetEmploymentStatus(raw string) error {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, e := range EmploymentStatuses {
		if string(e) == raw {
			a.EmploymentStatus = e
			return nil
		}
	}
	return newValidationError("employmentStatus", CodeInvalidValue, "must be one of %s", joinEnum(EmploymentStatuses))
}

func (a *Application) SetMaritalStatus(raw string) error {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, m := range MaritalStatuses {
		if string(m) == raw {
			a.MaritalStatus = m
			return nil
		}
	}
	return newValidationError("maritalStatus", CodeInvalidValue, "must be one of %s", joinEnum(MaritalStatuses))
}

func (a *Application) SetGender(raw string) error {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, g := range Genders {
		if string(g) == raw {
			a.Gender = g
			return nil
		}
	}
	return newValidationError("gender", CodeInvalidValue, "must be one of %s", joinEnum(Genders))
}

func (a *Application) SetDependents(n int) error {
	if n < 0 || n > MaxDependents {
		return newValidationError("dependents", CodeOutOfRange, "must be between 0 and %d", MaxDependents)
	}
	a.Dependents = n
	return nil
}

func (a *Application) SetAnnualIncome(v float64) error {
	if err := validateAmount("annualIncome", v); err != nil {
		return err
	}
	a.AnnualIncome = v
	return nil
}

func (a *Application) SetAvgElectricityBill(v float64) error {
	if err := validateAmount("avgElectricityBill", v); err != nil {
		return err
	}
	a.AvgElectricityBill = v
	return nil
}

func (a *Application) SetCurrentElectricityBill(v float64) error {
	if err := validateAmount("currentElectricityBill", v); err != nil {
		return err
	}
	a.CurrentElectricityBill = v
	return nil
}

func (a *Application) SetLoanType(raw string) error {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, t := range LoanTypes {
		if t == raw {
			a.LoanType = t
			return nil
		}
	}
	return newValidationError("loanType", CodeInvalidValue, "must be one of %s", strings.Join(LoanTypes, ", "))
}

func (a *Application) SetLoanAmount(v float64) error {
	if err := validateAmount("loanAmount", v); err != nil {
		return err
	}
	a.LoanAmount = v
	return nil
}

func (a *Application) SetDownPayment(v float64) error {
	if err := validateAmount("downPayment", v); err != nil {
		return err
	}
	a.DownPayment = v
	return nil
}

func (a *Application) SetInstallmentMonths(n int) error {
	if n < 0 {
		return newValidationError("installmentMonths", CodeOutOfRange, "must not be negative")
	}
	a.InstallmentMonths = n
	return nil
}

func (a *Application) SetMonthlyPayment(v float64) error {
	if err := validateAmount("monthlyPayment", v); err != nil {
		return err
	}
	a.MonthlyPayment = v
	return nil
}

func (a *Application) SetInstallmentStart(month, year int) error {
	if month < 1 || month > 12 {
		return newValidationError("installmentStartMonth", CodeOutOfRange, "month must be between 1 and 12")
	}
	if year < MinDateYear || year > MaxDateYear {
		return newValidationError("installmentStartYear", CodeOutOfRange, "year must be between %d and %d", MinDateYear, MaxDateYear)
	}
	a.InstallmentStartMonth = month
	a.InstallmentStartYear = year
	return nil
}

func (a *Application) SetRejectionReason(v string) {
	a.RejectionReason = strings.TrimSpace(v)
}

// NewExistingLoan builds a loan entry. AmountDue is derived from the total and
// the returned amount, so the sum invariant holds on construction.
func NewExistingLoan(active bool, total, returned float64, bankName, category string) (ExistingLoan, error) {
	if err := validateAmount("totalAmount", total); err != nil {
		return ExistingLoan{}, err
	}
	if err := validateAmount("amountReturned", returned); err != nil {
		return ExistingLoan{}, err
	}
	if toCents(returned) > toCents(total) {
		return ExistingLoan{}, newValidationError("amountReturned", CodeOutOfRange, "cannot exceed total amount")
	}
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		return ExistingLoan{}, newValidationError("bankName", CodeMissingRequired, "bank name is required")
	}
	return ExistingLoan{
		IsActive:       active,
		TotalAmount:    total,
		AmountReturned: returned,
		AmountDue:      float64(toCents(total)-toCents(returned)) / 100,
		BankName:       bankName,
		LoanCategory:   strings.TrimSpace(category),
	}, nil
}

// Reconcile rewrites AmountDue so that AmountReturned + AmountDue == TotalAmount.
// It reports whether a correction was made.
func (l *ExistingLoan) Reconcile() bool {
	due := float64(toCents(l.TotalAmount)-toCents(l.AmountReturned)) / 100
	if toCents(due) == toCents(l.AmountDue) {
		return false
	}
	l.AmountDue = due
	return true
}

func (a *Application) AddExistingLoan(l ExistingLoan) {
	a.ExistingLoans = append(a.ExistingLoans, l)
}

func (a *Application) ClearExistingLoans() {
	a.ExistingLoans = nil
}

// SetReference validates ref and stores it at index 0 or 1.
func (a *Application) SetReference(index int, ref Reference) error {
	if index < 0 || index > 1 {
		return newValidationError("references", CodeOutOfRange, "reference index must be 0 or 1")
	}
	ref.Name = strings.TrimSpace(ref.Name)
	ref.CNIC = strings.TrimSpace(ref.CNIC)
	ref.CNICIssueDate = strings.TrimSpace(ref.CNICIssueDate)
	ref.PhoneNumber = strings.TrimSpace(ref.PhoneNumber)
	ref.Email = strings.TrimSpace(ref.Email)

	if res := ValidateReference(index, ref); !res.IsValid() {
		return newValidationError(referenceField(index), CodeInvalidFormat, "%s", res.Errors()[0])
	}
	a.References[index] = ref
	return nil
}

// SetDocumentPath stores a non-empty path for kind.
func (a *Application) SetDocumentPath(kind DocumentKind, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return newValidationError(string(kind), CodeMissingRequired, "document path is required")
	}
	known := false
	for _, k := range DocumentKinds {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		return newValidationError(string(kind), CodeInvalidValue, "unknown document kind")
	}
	a.Documents.Set(kind, path)
	return nil
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
