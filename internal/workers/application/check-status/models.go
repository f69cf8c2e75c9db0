// internal/workers/application/check-status/models.go
package checkstatus

import "loan-desk/internal/models"

type Input struct {
	CNIC string `json:"cnic"`
}

// ApplicationSummary is what an applicant sees about one of their applications.
type ApplicationSummary struct {
	ApplicationID   string         `json:"applicationId"`
	Status          models.Status  `json:"status"`
	SubmissionDate  string         `json:"submissionDate,omitempty"`
	LoanType        string         `json:"loanType,omitempty"`
	LoanCategory    string         `json:"loanCategory,omitempty"`
	LoanAmount      float64        `json:"loanAmount"`
	NextSection     models.Section `json:"nextSection"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
}

type Output struct {
	CNIC         string               `json:"cnic"`
	Applications []ApplicationSummary `json:"applications"`
	Cached       bool                 `json:"-"`
}
