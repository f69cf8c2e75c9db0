// internal/models/validators.go
package models

import (
	"fmt"
)

// Rules holds the tunable thresholds used by the composite validators.
type Rules struct {
	UnemployedCeiling        float64
	RetiredWarningThreshold  float64
	DebtToIncomeWarningRatio float64
}

func DefaultRules() Rules {
	return Rules{
		UnemployedCeiling:        100000,
		RetiredWarningThreshold:  1000000,
		DebtToIncomeWarningRatio: 0.5,
	}
}

// Income multiples per loan type.
var incomeMultiples = map[string]int64{
	LoanTypeHome:     5,
	LoanTypeCar:      2,
	LoanTypePersonal: 1,
	LoanTypeScooter:  1,
}

func referenceField(index int) string {
	return fmt.Sprintf("references[%d]", index)
}

// ValidateReference checks one reference in isolation.
func ValidateReference(index int, ref Reference) *ValidationResult {
	res := NewValidationResult()
	label := fmt.Sprintf("Reference %d", index+1)

	if _, err := validateName("name", ref.Name); err != nil {
		res.AddError(fmt.Sprintf("%s: %v", label, err))
	}
	if err := ValidateCNIC("cnic", ref.CNIC); err != nil {
		res.AddError(fmt.Sprintf("%s: %v", label, err))
	}
	if err := ValidateDate("cnicIssueDate", ref.CNICIssueDate); err != nil {
		res.AddError(fmt.Sprintf("%s: %v", label, err))
	}
	if err := ValidatePhone("phoneNumber", ref.PhoneNumber); err != nil {
		res.AddError(fmt.Sprintf("%s: %v", label, err))
	}
	if err := ValidateEmail("email", ref.Email); err != nil {
		res.AddError(fmt.Sprintf("%s: %v", label, err))
	}
	return res
}

// ValidateExistingLoans reports one error per violated rule per loan.
// Amounts are compared in cents.
func (a *Application) ValidateExistingLoans() *ValidationResult {
	res := NewValidationResult()
	for i, l := range a.ExistingLoans {
		total := toCents(l.TotalAmount)
		returned := toCents(l.AmountReturned)
		due := toCents(l.AmountDue)

		if returned+due != total {
			res.AddError(fmt.Sprintf("Loan %d: amount returned (%.2f) plus amount due (%.2f) does not equal total amount (%.2f)",
				i+1, l.AmountReturned, l.AmountDue, l.TotalAmount))
		}
		if returned > total {
			res.AddError(fmt.Sprintf("Loan %d: amount returned (%.2f) exceeds total amount (%.2f)", i+1, l.AmountReturned, l.TotalAmount))
		}
		if due > total {
			res.AddError(fmt.Sprintf("Loan %d: amount due (%.2f) exceeds total amount (%.2f)", i+1, l.AmountDue, l.TotalAmount))
		}
	}
	return res
}

// ValidateReferences validates both references and rejects a shared CNIC.
func (a *Application) ValidateReferences() *ValidationResult {
	res := NewValidationResult()
	for i, ref := range a.References {
		res.Merge(ValidateReference(i, ref))
	}
	if a.References[0].CNIC == a.References[1].CNIC {
		res.AddError("Reference CNICs must be different")
	}
	return res
}

// ValidateDebtToIncomeRatio reports whether active debt relative to annual
// income is within rules.DebtToIncomeWarningRatio. An excessive ratio is a
// warning; a non-positive income is an error.
func (a *Application) ValidateDebtToIncomeRatio(rules Rules) (bool, *ValidationResult) {
	res := NewValidationResult()
	if a.AnnualIncome <= 0 {
		res.AddError("Annual income must be greater than zero to compute debt-to-income ratio")
		return false, res
	}
	ratio := a.TotalActiveDebt() / a.AnnualIncome
	if ratio > rules.DebtToIncomeWarningRatio {
		res.AddWarning(fmt.Sprintf("Debt-to-income ratio %.2f exceeds %.2f", ratio, rules.DebtToIncomeWarningRatio))
		return false, res
	}
	return true, res
}

// ValidateIncomeForLoanType checks amount against the income multiple allowed
// for loanType. The boundary is inclusive.
func (a *Application) ValidateIncomeForLoanType(rules Rules, loanType string, amount float64) *ValidationResult {
	res := NewValidationResult()

	multiple, ok := incomeMultiples[loanType]
	if !ok {
		res.AddError(fmt.Sprintf("Unknown loan type %q", loanType))
		return res
	}

	if a.EmploymentStatus == EmploymentUnemployed && toCents(amount) > toCents(rules.UnemployedCeiling) {
		res.AddError(fmt.Sprintf("Unemployed applicants cannot request more than %.2f", rules.UnemployedCeiling))
	}

	if a.AnnualIncome <= 0 {
		res.AddError("Annual income must be greater than zero")
		return res
	}

	if toCents(amount) > toCents(a.AnnualIncome)*multiple {
		res.AddError(fmt.Sprintf("Loan amount %.2f exceeds %d times annual income (%.2f) for %s loans",
			amount, multiple, a.AnnualIncome, loanType))
	}

	if a.EmploymentStatus == EmploymentRetired && toCents(amount) > toCents(rules.RetiredWarningThreshold) {
		res.AddWarning(fmt.Sprintf("Retired applicant requesting more than %.2f", rules.RetiredWarningThreshold))
	}
	return res
}

func (a *Application) validatePersonal() *ValidationResult {
	res := NewValidationResult()
	required := []struct {
		name  string
		value string
	}{
		{"Full name", a.FullName},
		{"Father's name", a.FathersName},
		{"Postal address", a.PostalAddress},
		{"Contact number", a.ContactNumber},
		{"Email", a.Email},
		{"CNIC", a.CNIC},
		{"CNIC expiry date", a.CNICExpiryDate},
	}
	for _, f := range required {
		if f.value == "" {
			res.AddError(f.name + " is required")
		}
	}
	if a.ContactNumber != "" {
		if err := ValidatePhone("contactNumber", a.ContactNumber); err != nil {
			res.AddError(err.Error())
		}
	}
	if a.Email != "" {
		if err := ValidateEmail("email", a.Email); err != nil {
			res.AddError(err.Error())
		}
	}
	if a.CNIC != "" {
		if err := ValidateCNIC("cnic", a.CNIC); err != nil {
			res.AddError(err.Error())
		}
	}
	if a.CNICExpiryDate != "" {
		if err := ValidateDate("cnicExpiryDate", a.CNICExpiryDate); err != nil {
			res.AddError(err.Error())
		}
	}
	return res
}

func (a *Application) validateFinancial(rules Rules) *ValidationResult {
	res := NewValidationResult()
	if a.EmploymentStatus == "" {
		res.AddError("Employment status is required")
	}
	if a.MaritalStatus == "" {
		res.AddError("Marital status is required")
	}
	if a.Gender == "" {
		res.AddError("Gender is required")
	}
	if a.Dependents < 0 || a.Dependents > MaxDependents {
		res.AddError(fmt.Sprintf("Dependents must be between 0 and %d", MaxDependents))
	}
	res.Merge(a.ValidateExistingLoans())
	_, dti := a.ValidateDebtToIncomeRatio(rules)
	res.Merge(dti)
	if a.LoanType != "" && a.AnnualIncome > 0 {
		res.Merge(a.ValidateIncomeForLoanType(rules, a.LoanType, a.LoanAmount))
	}
	return res
}

func (a *Application) validateDocuments() *ValidationResult {
	res := NewValidationResult()
	for _, kind := range DocumentKinds {
		if a.Documents.Path(kind) == "" {
			res.AddError(fmt.Sprintf("Document %s is required", kind))
		}
	}
	return res
}

// ValidateSection runs the checks that gate persisting section.
func (a *Application) ValidateSection(rules Rules, section Section) *ValidationResult {
	switch section {
	case SectionPersonal:
		return a.validatePersonal()
	case SectionFinancial:
		return a.validateFinancial(rules)
	case SectionReferences:
		return a.ValidateReferences()
	case SectionDocuments:
		return a.validateDocuments()
	}
	res := NewValidationResult()
	res.AddError(fmt.Sprintf("Unknown section %q", section))
	return res
}

// ValidateCompleteApplication checks required fields and aggregates the
// loan, reference and debt-to-income validators into one report.
func (a *Application) ValidateCompleteApplication(rules Rules) *ValidationResult {
	res := NewValidationResult()
	res.Merge(a.validatePersonal())
	res.Merge(a.validateFinancial(rules))
	res.Merge(a.ValidateReferences())
	res.Merge(a.validateDocuments())
	return res
}
