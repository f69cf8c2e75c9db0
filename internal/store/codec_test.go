// internal/store/codec_test.go
package store

import (
	"strings"
	"testing"

	"loan-desk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestApplication(loans int) *models.Application {
	app := models.NewApplication()
	app.ID = "1007"
	app.Status = models.StatusSubmitted
	app.SubmissionDate = "14-10-2026"
	app.CompletedSections = []models.Section{models.SectionPersonal, models.SectionFinancial, models.SectionReferences, models.SectionDocuments}
	app.FullName = "Ayesha Khan"
	app.FathersName = "Imran Khan"
	app.PostalAddress = "House 12, Street 4, Lahore"
	app.ContactNumber = "03001234567"
	app.Email = "ayesha@example.com"
	app.CNIC = "3520212345671"
	app.CNICExpiryDate = "01-01-2030"
	app.EmploymentStatus = models.EmploymentEmployed
	app.MaritalStatus = models.MaritalMarried
	app.Gender = models.GenderFemale
	app.Dependents = 3
	app.AnnualIncome = 600000
	app.AvgElectricityBill = 4500.5
	app.CurrentElectricityBill = 5200
	app.LoanType = models.LoanTypeCar
	app.LoanCategory = "Toyota Corolla"
	app.LoanAmount = 1000000
	app.DownPayment = 200000
	app.InstallmentMonths = 36
	app.MonthlyPayment = 22222.22
	app.InstallmentStartMonth = 11
	app.InstallmentStartYear = 2026

	for i := 0; i < loans; i++ {
		app.ExistingLoans = append(app.ExistingLoans, models.ExistingLoan{
			IsActive:       i%2 == 0,
			TotalAmount:    100000,
			AmountReturned: 40000,
			AmountDue:      60000,
			BankName:       "HBL",
			LoanCategory:   "personal",
		})
	}

	app.References[0] = models.Reference{Name: "Bilal Ahmed", CNIC: "1111111111111", CNICIssueDate: "15-06-2015", PhoneNumber: "03211234567", Email: "bilal@example.com"}
	app.References[1] = models.Reference{Name: "Sara Malik", CNIC: "2222222222222", CNICIssueDate: "20-02-2018", PhoneNumber: "03331234567", Email: "sara@example.com"}
	app.Documents = models.Documents{
		CNICFront:       "data/documents/1007_cnic_front.jpg",
		CNICBack:        "data/documents/1007_cnic_back.jpg",
		ElectricityBill: "data/documents/1007_electricity_bill.jpg",
		SalarySlip:      "data/documents/1007_salary_slip.jpg",
	}
	return app
}

// ==========================
// Round Trip Tests
// ==========================

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec('|')

	for _, loans := range []int{0, 1, 2} {
		app := createTestApplication(loans)
		line := codec.Encode(app)

		decoded, report, err := codec.Decode(line)
		require.NoError(t, err)
		assert.True(t, report.Clean(), "loans=%d report=%+v", loans, report)
		assert.Equal(t, app, decoded)
		assert.Equal(t, line, codec.Encode(decoded))

		wantCols := len(header) + 1 + loans*loanTupleWidth + 2*referenceTupleWidth + len(models.DocumentKinds)
		assert.Len(t, strings.Split(line, "|"), wantCols)
	}
}

func TestCodec_ColumnPositions(t *testing.T) {
	codec := NewCodec('|')
	app := createTestApplication(1)
	app.RejectionReason = "insufficient income"
	fields := codec.Split(codec.Encode(app))

	assert.Equal(t, "1007", fields[colID])
	assert.Equal(t, "submitted", fields[colStatus])
	assert.Equal(t, "personal,financial,references,documents", fields[3])
	assert.Equal(t, "insufficient income", fields[colRejectionReason])
	assert.Equal(t, "1", fields[colLoanCount])
	assert.Equal(t, []string{"1", "100000.00", "40000.00", "60000.00", "HBL", "personal"}, fields[colLoanCount+1:colLoanCount+7])
	assert.Equal(t, "data/documents/1007_salary_slip.jpg", fields[len(fields)-1])
}

func TestCodec_SanitizesText(t *testing.T) {
	codec := NewCodec('|')
	app := createTestApplication(0)
	app.PostalAddress = "Flat 3 | Block B\r\nKarachi"
	app.RejectionReason = "  missing\nsalary slip "

	line := codec.Encode(app)
	assert.NotContains(t, line, "\n")

	decoded, report, err := codec.Decode(line)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, "Flat 3   Block B  Karachi", decoded.PostalAddress)
	assert.Equal(t, "missing salary slip", decoded.RejectionReason)
	assert.Equal(t, line, codec.Encode(decoded))
}

func TestCodec_AlternateDelimiter(t *testing.T) {
	codec := NewCodec(';')
	app := createTestApplication(2)
	decoded, _, err := codec.Decode(codec.Encode(app))
	require.NoError(t, err)
	assert.Equal(t, app, decoded)
}

// ==========================
// Tolerant Decode Tests
// ==========================

func TestCodec_Decode_TooFewColumns(t *testing.T) {
	codec := NewCodec('|')
	_, _, err := codec.Decode("1001|submitted|01-01-2024")
	assert.ErrorIs(t, err, ErrTooFewColumns)
}

func TestCodec_Decode_MinimalRecord(t *testing.T) {
	codec := NewCodec('|')
	app, report, err := codec.Decode(" 1001 | C2 | | personal ")
	require.NoError(t, err)

	assert.Equal(t, "1001", app.ID)
	assert.Equal(t, models.StatusC2, app.Status)
	assert.Equal(t, []models.Section{models.SectionPersonal}, app.CompletedSections)
	assert.Equal(t, models.SectionFinancial, app.NextIncompleteSection())
	assert.Empty(t, report.Warnings)
	assert.Contains(t, report.Skipped, "fullName")
	assert.Contains(t, report.Skipped, "installmentStartYear")
	assert.Contains(t, report.Skipped, "existingLoans")
	assert.Contains(t, report.Skipped, "reference2.email")
	assert.Contains(t, report.Skipped, "salary_slip")
}

func TestCodec_Decode_BadNumericFieldDefaults(t *testing.T) {
	codec := NewCodec('|')
	app := createTestApplication(1)
	fields := codec.Split(codec.Encode(app))
	fields[15] = "six lakh"                  // annualIncome
	fields[14] = "x"                         // dependents
	fields[colLoanCount+2] = "one hundred k" // loan total

	decoded, report, err := codec.Decode(strings.Join(fields, "|"))
	require.NoError(t, err)
	assert.Len(t, report.Warnings, 3)
	assert.Equal(t, 0.0, decoded.AnnualIncome)
	assert.Equal(t, 0, decoded.Dependents)
	assert.Equal(t, 0.0, decoded.ExistingLoans[0].TotalAmount)
	assert.Equal(t, "Ayesha Khan", decoded.FullName)
	assert.Equal(t, app.References, decoded.References)
}

func TestCodec_Decode_UnknownStatusKeptWithWarning(t *testing.T) {
	codec := NewCodec('|')
	app, report, err := codec.Decode("1001|pending||")
	require.NoError(t, err)
	assert.Equal(t, models.Status("pending"), app.Status)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "status")
}

func TestCodec_Decode_TruncatedLoanBlock(t *testing.T) {
	codec := NewCodec('|')
	app := createTestApplication(0)
	fields := codec.Split(codec.Encode(app))
	line := strings.Join(fields[:colLoanCount], "|") + "|2|1|500.00|100.00"

	decoded, report, err := codec.Decode(line)
	require.NoError(t, err)
	assert.Empty(t, decoded.ExistingLoans)
	assert.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Skipped, "reference1.name")
}
