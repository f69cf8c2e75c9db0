// internal/models/validators_test.go
package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReference(cnic string) Reference {
	return Reference{
		Name:          "Bilal Ahmed",
		CNIC:          cnic,
		CNICIssueDate: "15-06-2015",
		PhoneNumber:   "03211234567",
		Email:         "bilal@example.com",
	}
}

func createValidApplication() *Application {
	app := NewApplication()
	app.FullName = "Ayesha Khan"
	app.FathersName = "Imran Khan"
	app.PostalAddress = "House 12, Street 4, Lahore"
	app.ContactNumber = "03001234567"
	app.Email = "ayesha@example.com"
	app.CNIC = "3520212345671"
	app.CNICExpiryDate = "01-01-2030"
	app.EmploymentStatus = EmploymentEmployed
	app.MaritalStatus = MaritalSingle
	app.Gender = GenderFemale
	app.Dependents = 2
	app.AnnualIncome = 600000
	app.LoanType = LoanTypeCar
	app.LoanAmount = 1000000
	app.ExistingLoans = []ExistingLoan{
		{IsActive: true, TotalAmount: 100000, AmountReturned: 40000, AmountDue: 60000, BankName: "HBL", LoanCategory: "personal"},
	}
	app.References[0] = validReference("1111111111111")
	app.References[1] = validReference("2222222222222")
	app.Documents = Documents{
		CNICFront:       "/tmp/front.jpg",
		CNICBack:        "/tmp/back.jpg",
		ElectricityBill: "/tmp/bill.jpg",
		SalarySlip:      "/tmp/slip.jpg",
	}
	return app
}

// ==========================
// ValidationResult Tests
// ==========================

func TestValidationResult_WarningsKeepValid(t *testing.T) {
	res := NewValidationResult()
	assert.True(t, res.IsValid())
	assert.Equal(t, "", res.Report())

	res.AddWarning("w1")
	assert.True(t, res.IsValid())

	res.AddError("e1")
	res.AddError("e2")
	assert.False(t, res.IsValid())
	assert.Equal(t, "Errors:\n  - e1\n  - e2\nWarnings:\n  - w1\n", res.Report())
}

func TestValidationResult_Merge(t *testing.T) {
	a := NewValidationResult()
	a.AddError("a")
	b := NewValidationResult()
	b.AddError("b")
	b.AddWarning("bw")

	a.Merge(b)
	a.Merge(nil)
	assert.Equal(t, []string{"a", "b"}, a.Errors())
	assert.Equal(t, []string{"bw"}, a.Warnings())
}

// ==========================
// Composite Validator Tests
// ==========================

func TestValidateExistingLoans_SumInvariant(t *testing.T) {
	for total := 0; total <= 6; total++ {
		for returned := 0; returned <= 7; returned++ {
			for due := 0; due <= 7; due++ {
				app := NewApplication()
				app.ExistingLoans = []ExistingLoan{{
					TotalAmount:    float64(total),
					AmountReturned: float64(returned),
					AmountDue:      float64(due),
				}}
				violated := returned+due != total || returned > total || due > total
				res := app.ValidateExistingLoans()
				assert.Equal(t, violated, !res.IsValid(), fmt.Sprintf("total=%d returned=%d due=%d", total, returned, due))
			}
		}
	}
}

func TestValidateExistingLoans_AccumulatesPerLoan(t *testing.T) {
	app := NewApplication()
	app.ExistingLoans = []ExistingLoan{
		{TotalAmount: 100, AmountReturned: 150, AmountDue: 0},
		{TotalAmount: 100, AmountReturned: 50, AmountDue: 50},
		{TotalAmount: 100, AmountReturned: 0, AmountDue: 120},
	}
	res := app.ValidateExistingLoans()
	errs := res.Errors()
	require.Len(t, errs, 4)
	assert.Contains(t, errs[0], "Loan 1")
	assert.Contains(t, errs[1], "Loan 1")
	assert.Contains(t, errs[2], "Loan 3")
	assert.Contains(t, errs[3], "Loan 3")
}

func TestValidateReferences_Distinctness(t *testing.T) {
	tests := []struct {
		name      string
		ref1      Reference
		ref2      Reference
		wantMatch bool
	}{
		{"distinct valid", validReference("1111111111111"), validReference("2222222222222"), false},
		{"same valid", validReference("1111111111111"), validReference("1111111111111"), true},
		{"same invalid", Reference{CNIC: "123"}, Reference{CNIC: "123"}, true},
		{"distinct invalid", Reference{CNIC: "123"}, Reference{CNIC: "456"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApplication()
			app.References = [2]Reference{tt.ref1, tt.ref2}
			res := app.ValidateReferences()
			assert.Equal(t, tt.wantMatch, containsError(res, "Reference CNICs must be different"))
		})
	}
}

func TestValidateDebtToIncomeRatio(t *testing.T) {
	rules := DefaultRules()

	app := NewApplication()
	ok, res := app.ValidateDebtToIncomeRatio(rules)
	assert.False(t, ok)
	assert.False(t, res.IsValid())

	app.AnnualIncome = 100000
	app.ExistingLoans = []ExistingLoan{
		{IsActive: true, TotalAmount: 50000, AmountDue: 50000},
		{IsActive: false, TotalAmount: 90000, AmountDue: 90000},
	}
	ok, res = app.ValidateDebtToIncomeRatio(rules)
	assert.True(t, ok)
	assert.True(t, res.IsValid())
	assert.Empty(t, res.Warnings())

	app.ExistingLoans[0].AmountDue = 50001
	ok, res = app.ValidateDebtToIncomeRatio(rules)
	assert.False(t, ok)
	assert.True(t, res.IsValid())
	assert.Len(t, res.Warnings(), 1)
}

func TestValidateIncomeForLoanType(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name        string
		employment  EmploymentStatus
		income      float64
		loanType    string
		amount      float64
		wantValid   bool
		wantWarning bool
		wantMessage string
	}{
		{"home at five times", EmploymentEmployed, 600000, LoanTypeHome, 3000000, true, false, ""},
		{"home above five times", EmploymentEmployed, 600000, LoanTypeHome, 3000001, false, false, "exceeds 5 times annual income"},
		{"car at two times", EmploymentEmployed, 600000, LoanTypeCar, 1200000, true, false, ""},
		{"car above two times", EmploymentEmployed, 600000, LoanTypeCar, 1200000.01, false, false, "exceeds 2 times annual income"},
		{"personal above income", EmploymentEmployed, 600000, LoanTypePersonal, 600001, false, false, "exceeds 1 times annual income"},
		{"unemployed above ceiling", EmploymentUnemployed, 600000, LoanTypePersonal, 100001, false, false, "Unemployed applicants"},
		{"unemployed at ceiling", EmploymentUnemployed, 600000, LoanTypePersonal, 100000, true, false, ""},
		{"retired above threshold", EmploymentRetired, 600000, LoanTypeHome, 1500000, true, true, ""},
		{"zero income", EmploymentEmployed, 0, LoanTypeHome, 1, false, false, "greater than zero"},
		{"unknown type", EmploymentEmployed, 600000, "boat", 1, false, false, "Unknown loan type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApplication()
			app.EmploymentStatus = tt.employment
			app.AnnualIncome = tt.income

			res := app.ValidateIncomeForLoanType(rules, tt.loanType, tt.amount)
			assert.Equal(t, tt.wantValid, res.IsValid(), res.Report())
			assert.Equal(t, tt.wantWarning, len(res.Warnings()) > 0)
			if tt.wantMessage != "" {
				assert.Contains(t, res.Report(), tt.wantMessage)
			}
		})
	}
}

func TestValidateCompleteApplication(t *testing.T) {
	rules := DefaultRules()

	app := createValidApplication()
	res := app.ValidateCompleteApplication(rules)
	assert.True(t, res.IsValid(), res.Report())

	app.FullName = ""
	app.References[1].CNIC = app.References[0].CNIC
	app.ExistingLoans[0].AmountDue = 1
	app.Documents.SalarySlip = ""
	res = app.ValidateCompleteApplication(rules)
	assert.False(t, res.IsValid())
	assert.True(t, containsError(res, "Full name is required"))
	assert.True(t, containsError(res, "Reference CNICs must be different"))
	assert.True(t, containsError(res, "Document salary_slip is required"))
	assert.Contains(t, res.Report(), "Loan 1")
}

func TestValidateSection(t *testing.T) {
	rules := DefaultRules()
	app := createValidApplication()
	for _, s := range SectionOrder {
		assert.True(t, app.ValidateSection(rules, s).IsValid(), string(s))
	}
	assert.False(t, app.ValidateSection(rules, SectionComplete).IsValid())

	empty := NewApplication()
	assert.False(t, empty.ValidateSection(rules, SectionPersonal).IsValid())
	assert.False(t, empty.ValidateSection(rules, SectionFinancial).IsValid())
	assert.False(t, empty.ValidateSection(rules, SectionDocuments).IsValid())
}

func containsError(res *ValidationResult, msg string) bool {
	for _, e := range res.Errors() {
		if e == msg {
			return true
		}
	}
	return false
}
