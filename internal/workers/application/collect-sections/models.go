// internal/workers/application/collect-sections/models.go
package collectsections

import "loan-desk/internal/models"

// Input selects a new application (empty ApplicationID) or a resume.
type Input struct {
	ApplicationID string `json:"applicationId,omitempty"`
	CNIC          string `json:"cnic,omitempty"`
}

type Output struct {
	SessionID         string                `json:"sessionId"`
	ApplicationID     string                `json:"applicationId"`
	Status            models.Status         `json:"status"`
	CompletedSections []models.Section      `json:"completedSections"`
	NextSection       models.Section        `json:"nextSection"`
	Submitted         bool                  `json:"submitted"`
	Stopped           bool                  `json:"stopped"`
	FailedDocuments   []models.DocumentKind `json:"failedDocuments,omitempty"`
}
