// internal/workers/lender/review-application/handler.go
package reviewapplication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loan-desk/internal/common/audit"
	"loan-desk/internal/common/console"
	apperrors "loan-desk/internal/common/errors"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"
	"loan-desk/internal/store"
	sendnotification "loan-desk/internal/workers/communication/send-notification"
)

const (
	TaskType = "review-application"
)

// ApplicationStore is the part of the store the review workflow needs.
type ApplicationStore interface {
	LoadAll(ctx context.Context) ([]*models.Application, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	TransitionStatus(ctx context.Context, id string, from, status models.Status, reason string) error
}

// StatusCache drops an applicant's cached status after a decision.
type StatusCache interface {
	Invalidate(ctx context.Context, cnic string) error
}

// Notifier tells the applicant about a decision.
type Notifier interface {
	NotifyDecision(ctx context.Context, app *models.Application) (*sendnotification.Output, error)
}

type Handler struct {
	config   *Config
	store    ApplicationStore
	cache    StatusCache
	notifier Notifier
	audit    audit.Recorder
	logger   logger.Logger
}

// NewHandler builds the review workflow. cache, notifier and recorder may be nil.
func NewHandler(config *Config, st ApplicationStore, cache StatusCache, notifier Notifier, recorder audit.Recorder, log logger.Logger) *Handler {
	if notifier == nil {
		notifier = sendnotification.NopNotifier{}
	}
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Handler{
		config:   config,
		store:    st,
		cache:    cache,
		notifier: notifier,
		audit:    recorder,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// ListAll returns every application in store order.
func (h *Handler) ListAll(ctx context.Context) ([]*models.Application, error) {
	return h.store.LoadAll(ctx)
}

// FilterByStatus returns the applications whose status equals raw.
func (h *Handler) FilterByStatus(ctx context.Context, raw string) ([]*models.Application, error) {
	status, ok := models.ParseStatus(raw)
	if !ok {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("unknown status %q", raw))
	}
	apps, err := h.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Application
	for _, app := range apps {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out, nil
}

// Pending returns the submitted applications awaiting a decision.
func (h *Handler) Pending(ctx context.Context) ([]*models.Application, error) {
	return h.FilterByStatus(ctx, string(models.StatusSubmitted))
}

// Execute applies one decision. Only submitted applications can be decided.
// Cache invalidation and notification failures are logged and do not undo
// the status change.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	target, ok := input.Decision.Status()
	if !ok {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("unknown decision %q", input.Decision))
	}

	app, err := h.store.FindByID(ctx, input.ApplicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewApplicationNotFoundError(input.ApplicationID)
		}
		return nil, err
	}
	if app.Status != models.StatusSubmitted {
		return nil, apperrors.NewInvalidTransitionError(string(app.Status), string(target))
	}

	var reason string
	if target == models.StatusRejected {
		reason = strings.TrimSpace(input.Reason)
	}
	if err := h.store.TransitionStatus(ctx, app.ID, models.StatusSubmitted, target, reason); err != nil {
		h.logger.Warn("decision not applied", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
		return nil, err
	}

	previous := app.Status
	app.Status = target
	if reason != "" {
		app.SetRejectionReason(reason)
	}

	h.logger.Info("application decided", map[string]interface{}{
		"applicationId": app.ID,
		"status":        string(target),
	})
	h.audit.Record(ctx, audit.Event{
		Type:       audit.EventStatusChanged,
		ResourceID: app.ID,
		Details: map[string]interface{}{
			"from":   string(previous),
			"to":     string(target),
			"reason": reason,
		},
	})

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, app.CNIC); err != nil {
			h.logger.Warn("status cache not invalidated", map[string]interface{}{
				"applicationId": app.ID,
				"error":         err.Error(),
			})
		}
	}

	out := &Output{
		ApplicationID:   app.ID,
		PreviousStatus:  previous,
		Status:          target,
		RejectionReason: app.RejectionReason,
	}
	out.NotificationStatus = h.notify(ctx, app)
	return out, nil
}

func (h *Handler) notify(ctx context.Context, app *models.Application) string {
	if h.config.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.NotifyTimeout)
		defer cancel()
	}

	res, err := h.notifier.NotifyDecision(ctx, app)
	if err != nil {
		h.logger.Error("decision notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
		if res != nil {
			return res.Status
		}
		return sendnotification.StatusFailed
	}
	if res.Status == sendnotification.StatusSent {
		h.audit.Record(ctx, audit.Event{
			Type:       audit.EventNotificationSent,
			ResourceID: app.ID,
			Details: map[string]interface{}{
				"notificationId": res.NotificationID,
				"channels":       strings.Join(res.Channels, ","),
			},
		})
	}
	return res.Status
}

// Review lets the operator pick a pending application, inspect it and
// approve or reject it. A nil output means nothing was decided.
func (h *Handler) Review(ctx context.Context, p *console.Prompter) (*Output, error) {
	pending, err := h.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		p.Println("No applications are pending review.")
		return nil, nil
	}

	options := make([]string, len(pending))
	for i, app := range pending {
		options[i] = fmt.Sprintf("%s  %s  %s  %.2f", app.ID, app.FullName, app.LoanType, app.LoanAmount)
	}
	idx, err := p.Choose("Pending applications:", options)
	if err != nil {
		return nil, err
	}

	app, err := h.store.FindByID(ctx, pending[idx].ID)
	if err != nil {
		return nil, err
	}
	WriteDetails(p.Out(), app)

	action, err := p.Choose("Decision:", []string{"Approve", "Reject", "Back"})
	if err != nil {
		return nil, err
	}
	input := &Input{ApplicationID: app.ID}
	switch action {
	case 0:
		input.Decision = DecisionApprove
	case 1:
		input.Decision = DecisionReject
		input.Reason, err = h.askReason(p)
		if err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	ok, err := p.Confirm(fmt.Sprintf("Confirm %s for application %s?", input.Decision, app.ID))
	if err != nil {
		return nil, err
	}
	if !ok {
		p.Println("No changes made.")
		return nil, nil
	}

	out, err := h.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	p.Printf("Application %s is now %s.\n", out.ApplicationID, out.Status)
	return out, nil
}

func (h *Handler) askReason(p *console.Prompter) (string, error) {
	if !h.config.RequireRejectionReason {
		return p.Ask("Rejection reason (optional): ")
	}
	return p.AskValid("Rejection reason: ", func(s string) error {
		if s == "" {
			return fmt.Errorf("a reason is required")
		}
		return nil
	})
}
