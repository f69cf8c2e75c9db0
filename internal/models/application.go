// internal/models/application.go
package models

import (
	"strings"
)

// Status is the coarse lifecycle marker of an application. The checkpoint
// values (C1, C2, C3, incomplete_documents) track collection progress; the
// remaining values are workflow states once the application is submitted.
type Status string

const (
	StatusC1                  Status = "C1"
	StatusC2                  Status = "C2"
	StatusC3                  Status = "C3"
	StatusIncompleteDocuments Status = "incomplete_documents"
	StatusSubmitted           Status = "submitted"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
)

// AllStatuses lists every valid status in lifecycle order.
var AllStatuses = []Status{
	StatusC1,
	StatusC2,
	StatusC3,
	StatusIncompleteDocuments,
	StatusSubmitted,
	StatusApproved,
	StatusRejected,
}

// ParseStatus returns the Status for raw, or false if raw is not one of AllStatuses.
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range AllStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// IsDecided reports whether a lender has already acted on the application.
func (s Status) IsDecided() bool {
	return s == StatusApproved || s == StatusRejected
}

// Section is one of the ordered data-collection phases.
type Section string

const (
	SectionPersonal   Section = "personal"
	SectionFinancial  Section = "financial"
	SectionReferences Section = "references"
	SectionDocuments  Section = "documents"
	SectionComplete   Section = "complete"
)

// SectionOrder is the fixed collection order.
var SectionOrder = []Section{
	SectionPersonal,
	SectionFinancial,
	SectionReferences,
	SectionDocuments,
}

// ParseSection accepts any of the collectable sections (not SectionComplete).
func ParseSection(raw string) (Section, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, s := range SectionOrder {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// CheckpointAfter returns the status an application moves to once section
// has been completed and persisted.
func CheckpointAfter(section Section) Status {
	for i, s := range SectionOrder {
		if s == section && i+1 < len(SectionOrder) {
			return CheckpointFor(SectionOrder[i+1])
		}
	}
	return StatusSubmitted
}

// CheckpointFor returns the status shown while next is the section being collected.
func CheckpointFor(next Section) Status {
	switch next {
	case SectionPersonal:
		return StatusC1
	case SectionFinancial:
		return StatusC2
	case SectionReferences:
		return StatusC3
	case SectionDocuments:
		return StatusIncompleteDocuments
	default:
		return StatusSubmitted
	}
}

type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "employed"
	EmploymentSelfEmployed EmploymentStatus = "self-employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentRetired      EmploymentStatus = "retired"
	EmploymentStudent      EmploymentStatus = "student"
)

var EmploymentStatuses = []EmploymentStatus{
	EmploymentEmployed,
	EmploymentSelfEmployed,
	EmploymentUnemployed,
	EmploymentRetired,
	EmploymentStudent,
}

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

var MaritalStatuses = []MaritalStatus{MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// Loan types offered by the catalog.
const (
	LoanTypeHome     = "home"
	LoanTypeCar      = "car"
	LoanTypeScooter  = "scooter"
	LoanTypePersonal = "personal"
)

var LoanTypes = []string{LoanTypeHome, LoanTypeCar, LoanTypeScooter, LoanTypePersonal}

// DocumentKind names one of the four scanned documents an applicant uploads.
type DocumentKind string

const (
	DocumentCNICFront       DocumentKind = "cnic_front"
	DocumentCNICBack        DocumentKind = "cnic_back"
	DocumentElectricityBill DocumentKind = "electricity_bill"
	DocumentSalarySlip      DocumentKind = "salary_slip"
)

// DocumentKinds is the fixed document order used by the record format.
var DocumentKinds = []DocumentKind{
	DocumentCNICFront,
	DocumentCNICBack,
	DocumentElectricityBill,
	DocumentSalarySlip,
}

// ExistingLoan is a loan the applicant already carries.
// Invariant: AmountReturned + AmountDue == TotalAmount.
type ExistingLoan struct {
	IsActive       bool
	TotalAmount    float64
	AmountReturned float64
	AmountDue      float64
	BankName       string
	LoanCategory   string
}

// Reference is a person vouching for the applicant.
type Reference struct {
	Name          string
	CNIC          string
	CNICIssueDate string
	PhoneNumber   string
	Email         string
}

// Documents holds the four document paths. Before a successful save they are
// local paths chosen by the applicant; afterwards they point into managed storage.
type Documents struct {
	CNICFront       string
	CNICBack        string
	ElectricityBill string
	SalarySlip      string
}

// Path returns the path stored for kind.
func (d *Documents) Path(kind DocumentKind) string {
	switch kind {
	case DocumentCNICFront:
		return d.CNICFront
	case DocumentCNICBack:
		return d.CNICBack
	case DocumentElectricityBill:
		return d.ElectricityBill
	case DocumentSalarySlip:
		return d.SalarySlip
	}
	return ""
}

// Set stores path for kind without validation.
func (d *Documents) Set(kind DocumentKind, path string) {
	switch kind {
	case DocumentCNICFront:
		d.CNICFront = path
	case DocumentCNICBack:
		d.CNICBack = path
	case DocumentElectricityBill:
		d.ElectricityBill = path
	case DocumentSalarySlip:
		d.SalarySlip = path
	}
}

// Application is the loan-application aggregate.
//
// Fields are exported so the record codec can restore them as found on disk;
// interactive input goes through the Set* methods, which validate before
// committing.
type Application struct {
	ID                string
	Status            Status
	SubmissionDate    string
	CompletedSections []Section

	FullName       string
	FathersName    string
	PostalAddress  string
	ContactNumber  string
	Email          string
	CNIC           string
	CNICExpiryDate string

	EmploymentStatus       EmploymentStatus
	MaritalStatus          MaritalStatus
	Gender                 Gender
	Dependents             int
	AnnualIncome           float64
	AvgElectricityBill     float64
	CurrentElectricityBill float64

	LoanType              string
	LoanCategory          string
	LoanAmount            float64
	DownPayment           float64
	InstallmentMonths     int
	MonthlyPayment        float64
	InstallmentStartMonth int
	InstallmentStartYear  int
	RejectionReason       string

	ExistingLoans []ExistingLoan
	References    [2]Reference
	Documents     Documents
}

// NewApplication returns an empty in-memory application at the first checkpoint.
func NewApplication() *Application {
	return &Application{Status: StatusC1}
}

// IsSectionComplete reports whether section has passed validation and been persisted.
func (a *Application) IsSectionComplete(section Section) bool {
	for _, s := range a.CompletedSections {
		if s == section {
			return true
		}
	}
	return false
}

// MarkSectionComplete adds section to CompletedSections, keeping the fixed
// section order and ignoring duplicates.
func (a *Application) MarkSectionComplete(section Section) {
	if a.IsSectionComplete(section) {
		return
	}
	done := make(map[Section]bool, len(a.CompletedSections)+1)
	for _, s := range a.CompletedSections {
		done[s] = true
	}
	done[section] = true

	ordered := make([]Section, 0, len(done))
	for _, s := range SectionOrder {
		if done[s] {
			ordered = append(ordered, s)
		}
	}
	a.CompletedSections = ordered
}

// CompleteSection marks section complete and moves Status to the checkpoint
// of the next section still to be collected. Decided applications keep their
// status.
func (a *Application) CompleteSection(section Section) {
	a.MarkSectionComplete(section)
	if a.Status.IsDecided() {
		return
	}
	a.Status = CheckpointFor(a.NextIncompleteSection())
}

// NextIncompleteSection returns the first section in the fixed order that is
// not yet complete, or SectionComplete.
func (a *Application) NextIncompleteSection() Section {
	for _, s := range SectionOrder {
		if !a.IsSectionComplete(s) {
			return s
		}
	}
	return SectionComplete
}

// IsComplete reports whether the application needs no further collection.
// Records written before section tracking existed carry only a status, so a
// submitted or decided status also counts as complete.
func (a *Application) IsComplete() bool {
	if a.NextIncompleteSection() == SectionComplete {
		return true
	}
	return a.Status == StatusSubmitted || a.Status.IsDecided()
}

// CompletedSectionsString joins the completed sections with commas.
func (a *Application) CompletedSectionsString() string {
	parts := make([]string, len(a.CompletedSections))
	for i, s := range a.CompletedSections {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// ParseCompletedSections parses a comma-joined section list. Unknown entries
// are returned separately so the caller can report them.
func ParseCompletedSections(raw string) ([]Section, []string) {
	var sections []Section
	var unknown []string
	seen := map[Section]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s, ok := ParseSection(part)
		if !ok {
			unknown = append(unknown, part)
			continue
		}
		if !seen[s] {
			seen[s] = true
			sections = append(sections, s)
		}
	}
	ordered := make([]Section, 0, len(sections))
	for _, s := range SectionOrder {
		if seen[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered, unknown
}

// TotalActiveDebt sums AmountDue over active existing loans.
func (a *Application) TotalActiveDebt() float64 {
	var total float64
	for _, l := range a.ExistingLoans {
		if l.IsActive {
			total += l.AmountDue
		}
	}
	return total
}

// Clone returns a deep copy.
func (a *Application) Clone() *Application {
	c := *a
	c.CompletedSections = append([]Section(nil), a.CompletedSections...)
	c.ExistingLoans = append([]ExistingLoan(nil), a.ExistingLoans...)
	return &c
}
