// internal/models/application_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Section Ordering Tests
// ==========================

func TestNextIncompleteSection_FixedOrder(t *testing.T) {
	tests := []struct {
		name      string
		completed []Section
		want      Section
	}{
		{"none", nil, SectionPersonal},
		{"personal", []Section{SectionPersonal}, SectionFinancial},
		{"financial only", []Section{SectionFinancial}, SectionPersonal},
		{"references only", []Section{SectionReferences}, SectionPersonal},
		{"personal and references", []Section{SectionPersonal, SectionReferences}, SectionFinancial},
		{"first three", []Section{SectionPersonal, SectionFinancial, SectionReferences}, SectionDocuments},
		{"documents missing personal", []Section{SectionDocuments, SectionFinancial, SectionReferences}, SectionPersonal},
		{"all", []Section{SectionDocuments, SectionReferences, SectionFinancial, SectionPersonal}, SectionComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApplication()
			for _, s := range tt.completed {
				app.MarkSectionComplete(s)
			}
			assert.Equal(t, tt.want, app.NextIncompleteSection())
		})
	}
}

func TestMarkSectionComplete_KeepsOrderAndDeduplicates(t *testing.T) {
	app := NewApplication()
	app.MarkSectionComplete(SectionReferences)
	app.MarkSectionComplete(SectionPersonal)
	app.MarkSectionComplete(SectionReferences)

	assert.Equal(t, []Section{SectionPersonal, SectionReferences}, app.CompletedSections)
	assert.Equal(t, "personal,references", app.CompletedSectionsString())
}

func TestCompleteSection_AdvancesCheckpoint(t *testing.T) {
	app := NewApplication()
	assert.Equal(t, StatusC1, app.Status)

	app.CompleteSection(SectionPersonal)
	assert.Equal(t, StatusC2, app.Status)

	app.CompleteSection(SectionFinancial)
	assert.Equal(t, StatusC3, app.Status)

	app.CompleteSection(SectionReferences)
	assert.Equal(t, StatusIncompleteDocuments, app.Status)

	app.CompleteSection(SectionDocuments)
	assert.Equal(t, StatusSubmitted, app.Status)
	assert.True(t, app.IsComplete())
}

func TestCompleteSection_DecidedStatusUnchanged(t *testing.T) {
	app := NewApplication()
	app.Status = StatusApproved
	app.CompleteSection(SectionPersonal)
	assert.Equal(t, StatusApproved, app.Status)
}

func TestCheckpointAfter(t *testing.T) {
	assert.Equal(t, StatusC2, CheckpointAfter(SectionPersonal))
	assert.Equal(t, StatusC3, CheckpointAfter(SectionFinancial))
	assert.Equal(t, StatusIncompleteDocuments, CheckpointAfter(SectionReferences))
	assert.Equal(t, StatusSubmitted, CheckpointAfter(SectionDocuments))
}

func TestIsComplete_LegacySubmittedRecord(t *testing.T) {
	app := NewApplication()
	app.Status = StatusSubmitted
	assert.True(t, app.IsComplete())

	app.Status = StatusC2
	assert.False(t, app.IsComplete())
}

func TestParseCompletedSections(t *testing.T) {
	sections, unknown := ParseCompletedSections(" references, personal ,bogus,,personal")
	assert.Equal(t, []Section{SectionPersonal, SectionReferences}, sections)
	assert.Equal(t, []string{"bogus"}, unknown)

	sections, unknown = ParseCompletedSections("")
	assert.Empty(t, sections)
	assert.Empty(t, unknown)
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, ok := ParseStatus(" " + string(s) + " ")
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseStatus("pending")
	assert.False(t, ok)
}

func TestClone_IsDeep(t *testing.T) {
	app := NewApplication()
	app.MarkSectionComplete(SectionPersonal)
	app.AddExistingLoan(ExistingLoan{TotalAmount: 10, AmountDue: 10, BankName: "HBL"})

	c := app.Clone()
	c.ExistingLoans[0].BankName = "UBL"
	c.MarkSectionComplete(SectionFinancial)

	assert.Equal(t, "HBL", app.ExistingLoans[0].BankName)
	assert.Len(t, app.CompletedSections, 1)
}

// ==========================
// Setter Tests
// ==========================

func TestSetters_RejectWithoutCommitting(t *testing.T) {
	app := NewApplication()
	require.NoError(t, app.SetCNIC("3520212345671"))

	tests := []struct {
		name  string
		apply func() error
		field string
	}{
		{"short cnic", func() error { return app.SetCNIC("12345") }, "cnic"},
		{"cnic letters", func() error { return app.SetCNIC("35202abcdefgh") }, "cnic"},
		{"short phone", func() error { return app.SetContactNumber("0300123") }, "contactNumber"},
		{"email without dot", func() error { return app.SetEmail("a@b") }, "email"},
		{"email without at", func() error { return app.SetEmail("ab.com") }, "email"},
		{"bad date format", func() error { return app.SetCNICExpiryDate("2030-01-01") }, "cnicExpiryDate"},
		{"day out of range", func() error { return app.SetCNICExpiryDate("32-01-2030") }, "cnicExpiryDate"},
		{"month out of range", func() error { return app.SetCNICExpiryDate("01-13-2030") }, "cnicExpiryDate"},
		{"year out of range", func() error { return app.SetCNICExpiryDate("01-01-2101") }, "cnicExpiryDate"},
		{"negative income", func() error { return app.SetAnnualIncome(-1) }, "annualIncome"},
		{"too many dependents", func() error { return app.SetDependents(21) }, "dependents"},
		{"unknown status", func() error { return app.SetStatus("pending") }, "status"},
		{"unknown employment", func() error { return app.SetEmploymentStatus("pirate") }, "employmentStatus"},
		{"short name", func() error { return app.SetFullName("J") }, "fullName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.apply()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Equal(t, "3520212345671", app.CNIC)
	assert.Equal(t, "", app.Email)
	assert.Equal(t, 0, app.Dependents)
}

func TestSetters_AcceptBoundaries(t *testing.T) {
	app := NewApplication()
	assert.NoError(t, app.SetCNICExpiryDate("31-12-2100"))
	assert.NoError(t, app.SetSubmissionDate("01-01-1900"))
	assert.NoError(t, app.SetDependents(20))
	assert.NoError(t, app.SetDependents(0))
	assert.NoError(t, app.SetAnnualIncome(0))
	assert.NoError(t, app.SetContactNumber("03001234567"))
	assert.NoError(t, app.SetEmploymentStatus("Self-Employed"))
	assert.Equal(t, EmploymentSelfEmployed, app.EmploymentStatus)
	assert.NoError(t, app.SetFullName("  Ayesha   Khan "))
	assert.Equal(t, "Ayesha Khan", app.FullName)
}

func TestNewExistingLoan_DerivesAmountDue(t *testing.T) {
	loan, err := NewExistingLoan(true, 500000, 125000.5, "Meezan", "car")
	require.NoError(t, err)
	assert.Equal(t, 374999.5, loan.AmountDue)

	_, err = NewExistingLoan(true, 100, 101, "Meezan", "car")
	assert.Error(t, err)

	_, err = NewExistingLoan(true, 100, 10, " ", "car")
	assert.Error(t, err)
}

func TestExistingLoan_Reconcile(t *testing.T) {
	l := ExistingLoan{TotalAmount: 1000, AmountReturned: 400, AmountDue: 500}
	assert.True(t, l.Reconcile())
	assert.Equal(t, 600.0, l.AmountDue)
	assert.False(t, l.Reconcile())
}

func TestSetReference(t *testing.T) {
	app := NewApplication()
	err := app.SetReference(0, validReference("1111111111111"))
	require.NoError(t, err)
	assert.Equal(t, "1111111111111", app.References[0].CNIC)

	bad := validReference("111")
	err = app.SetReference(1, bad)
	require.Error(t, err)
	assert.Equal(t, "", app.References[1].CNIC)

	assert.Error(t, app.SetReference(2, validReference("2222222222222")))
}

func TestSetDocumentPath(t *testing.T) {
	app := NewApplication()
	require.NoError(t, app.SetDocumentPath(DocumentSalarySlip, " /tmp/slip.jpg "))
	assert.Equal(t, "/tmp/slip.jpg", app.Documents.SalarySlip)
	assert.Error(t, app.SetDocumentPath(DocumentCNICFront, ""))
	assert.Error(t, app.SetDocumentPath(DocumentKind("passport"), "/tmp/p.jpg"))
}
