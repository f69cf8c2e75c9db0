// internal/workers/lender/review-application/models.go
package reviewapplication

import "loan-desk/internal/models"

// Decision is the lender's verdict on a submitted application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Status returns the application status a decision moves to.
func (d Decision) Status() (models.Status, bool) {
	switch d {
	case DecisionApprove:
		return models.StatusApproved, true
	case DecisionReject:
		return models.StatusRejected, true
	}
	return "", false
}

type Input struct {
	ApplicationID string   `json:"applicationId"`
	Decision      Decision `json:"decision"`
	Reason        string   `json:"reason,omitempty"`
}

type Output struct {
	ApplicationID      string        `json:"applicationId"`
	PreviousStatus     models.Status `json:"previousStatus"`
	Status             models.Status `json:"status"`
	RejectionReason    string        `json:"rejectionReason,omitempty"`
	NotificationStatus string        `json:"notificationStatus,omitempty"`
}
