// internal/workers/lender/application-statistics/models.go
package applicationstatistics

import "loan-desk/internal/models"

type Input struct{}

type Output struct {
	Total               int                   `json:"total"`
	ByStatus            map[models.Status]int `json:"byStatus"`
	ByLoanType          map[string]int        `json:"byLoanType"`
	Decided             int                   `json:"decided"`
	ApprovalRate        float64               `json:"approvalRate"` // 0..1 over decided applications
	ApprovedAmount      float64               `json:"approvedAmount"`
	RequestedAmount     float64               `json:"requestedAmount"`
	AverageApprovedLoan float64               `json:"averageApprovedLoan"`
	InProgress          int                   `json:"inProgress"`
	PendingReview       int                   `json:"pendingReview"`
}
