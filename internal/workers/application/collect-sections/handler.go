// internal/workers/application/collect-sections/handler.go
package collectsections

import (
	"context"
	"errors"
	"fmt"

	"loan-desk/internal/common/audit"
	"loan-desk/internal/common/console"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"
	"loan-desk/internal/store"
	selectloanproduct "loan-desk/internal/workers/catalog/select-loan-product"

	"github.com/google/uuid"
)

const (
	TaskType = "collect-sections"
)

var (
	ErrNoIncompleteApplication = errors.New("NO_INCOMPLETE_APPLICATION")
)

// ApplicationStore is the part of the store the collector persists through.
type ApplicationStore interface {
	Save(ctx context.Context, app *models.Application) (*store.SaveResult, error)
	UpdateSection(ctx context.Context, app *models.Application, section models.Section) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindIncomplete(ctx context.Context, id, cnic string) (*models.Application, error)
}

// LoanSelector fills the loan fields of an application.
type LoanSelector interface {
	Select(ctx context.Context, p *console.Prompter, app *models.Application) (*selectloanproduct.Output, error)
}

// StatusCache drops an applicant's cached status once their record changes.
type StatusCache interface {
	Invalidate(ctx context.Context, cnic string) error
}

type Handler struct {
	config   *Config
	store    ApplicationStore
	selector LoanSelector
	cache    StatusCache
	audit    audit.Recorder
	logger   logger.Logger
}

// NewHandler builds the collector. selector, cache and recorder may be nil.
func NewHandler(config *Config, st ApplicationStore, selector LoanSelector, cache StatusCache, recorder audit.Recorder, log logger.Logger) *Handler {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Handler{
		config:   config,
		store:    st,
		selector: selector,
		cache:    cache,
		audit:    recorder,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute starts a new application when input carries no ID and resumes the
// matching incomplete one otherwise.
func (h *Handler) Execute(ctx context.Context, p *console.Prompter, input *Input) (*Output, error) {
	if input == nil || input.ApplicationID == "" {
		return h.StartNew(ctx, p)
	}
	return h.Resume(ctx, p, input.ApplicationID, input.CNIC)
}

// StartNew runs loan selection and then every section in order.
func (h *Handler) StartNew(ctx context.Context, p *console.Prompter) (*Output, error) {
	sessionID := uuid.New().String()
	log := h.logger.WithFields(map[string]interface{}{"sessionId": sessionID})
	log.Info("new application started", nil)

	app := models.NewApplication()
	if h.selector != nil {
		if _, err := h.selector.Select(ctx, p, app); err != nil {
			return nil, err
		}
	}
	return h.run(ctx, p, app, sessionID, log)
}

// Resume continues the application matching both id and cnic at its first
// incomplete section.
func (h *Handler) Resume(ctx context.Context, p *console.Prompter, id, cnic string) (*Output, error) {
	sessionID := uuid.New().String()
	log := h.logger.WithFields(map[string]interface{}{
		"sessionId":     sessionID,
		"applicationId": id,
	})

	app, err := h.store.FindIncomplete(ctx, id, cnic)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("no incomplete application to resume", nil)
			return nil, fmt.Errorf("%w: %s", ErrNoIncompleteApplication, id)
		}
		return nil, err
	}

	next := app.NextIncompleteSection()
	log.Info("application resumed", map[string]interface{}{
		"nextSection": string(next),
	})
	p.Printf("Resuming application %s. Completed: %s. Next section: %s.\n",
		app.ID, completedLabel(app), sectionTitle(next))
	return h.run(ctx, p, app, sessionID, log)
}

// run drives the section state machine until the application is submitted,
// the operator stops, or an error unwinds the flow. Every section is
// validated before it is persisted and the record is re-read after each save.
func (h *Handler) run(ctx context.Context, p *console.Prompter, app *models.Application, sessionID string, log logger.Logger) (*Output, error) {
	for {
		section := app.NextIncompleteSection()
		if section == models.SectionComplete {
			return h.output(app, sessionID, nil, false), nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.Printf("\n=== %s ===\n", sectionTitle(section))
		if err := h.collectSection(ctx, p, app, section, log); err != nil {
			return nil, err
		}

		created := app.ID == ""
		var failed []models.DocumentKind
		if section == models.SectionDocuments {
			app.CompleteSection(section)
			res, err := h.store.Save(ctx, app)
			if err != nil {
				return nil, err
			}
			failed = res.FailedDocuments
		} else if err := h.store.UpdateSection(ctx, app, section); err != nil {
			return nil, err
		}
		h.recordSaved(ctx, app, section, sessionID, created)
		h.invalidateStatus(ctx, app, log)

		saved, err := h.store.FindByID(ctx, app.ID)
		if err != nil {
			log.Error("saved application could not be re-read", map[string]interface{}{
				"applicationId": app.ID,
				"error":         err.Error(),
			})
			return nil, err
		}
		app = saved

		if app.IsComplete() {
			p.Printf("\nThank you. Application %s has been submitted for review.\n", app.ID)
			for _, kind := range failed {
				p.Printf("Warning: document %s could not be stored; the lender will follow up.\n", kind)
			}
			log.Info("application submitted", map[string]interface{}{
				"applicationId":   app.ID,
				"failedDocuments": len(failed),
			})
			return h.output(app, sessionID, failed, false), nil
		}

		p.Printf("Progress saved. Application ID: %s. Keep it with your CNIC to resume later.\n", app.ID)
		cont, err := p.Confirm(fmt.Sprintf("Continue to the %s section?", sectionTitle(app.NextIncompleteSection())))
		if err != nil {
			return nil, err
		}
		if !cont {
			log.Info("collection paused", map[string]interface{}{
				"applicationId": app.ID,
				"nextSection":   string(app.NextIncompleteSection()),
			})
			return h.output(app, sessionID, nil, true), nil
		}
	}
}

// collectSection gathers section on a copy of app and commits it only when
// the section validator reports no errors. Otherwise the section is entered
// again from the start. A loan the entered income cannot support can be
// swapped for another product without re-entering the section.
func (h *Handler) collectSection(ctx context.Context, p *console.Prompter, app *models.Application, section models.Section, log logger.Logger) error {
	collect, ok := h.collectors()[section]
	if !ok {
		return fmt.Errorf("no collector for section %q", section)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		draft := app.Clone()
		if err := collect(p, draft); err != nil {
			return err
		}

		res := draft.ValidateSection(h.config.Rules, section)
		for !res.IsValid() {
			reselected, err := h.offerReselection(ctx, p, draft, section, log)
			if err != nil {
				return err
			}
			if !reselected {
				break
			}
			res = draft.ValidateSection(h.config.Rules, section)
		}
		if res.IsValid() {
			for _, w := range res.Warnings() {
				p.Printf("Note: %s\n", w)
			}
			*app = *draft
			return nil
		}

		log.Info("section rejected by validation", map[string]interface{}{
			"section": string(section),
			"errors":  len(res.Errors()),
		})
		p.Println("\nPlease correct the following and enter this section again:")
		p.Printf("%s", res.Report())
	}
}

// offerReselection lets the applicant pick another loan product when the
// chosen loan fails the income checks of the financial section. It reports
// whether draft now carries a new selection.
func (h *Handler) offerReselection(ctx context.Context, p *console.Prompter, draft *models.Application, section models.Section, log logger.Logger) (bool, error) {
	if h.selector == nil || section != models.SectionFinancial || draft.LoanType == "" || draft.AnnualIncome <= 0 {
		return false, nil
	}
	loanCheck := draft.ValidateIncomeForLoanType(h.config.Rules, draft.LoanType, draft.LoanAmount)
	if loanCheck.IsValid() {
		return false, nil
	}

	p.Println("\nThe selected loan does not fit the income entered:")
	p.Printf("%s", loanCheck.Report())
	again, err := p.Confirm("Choose a different loan product?")
	if err != nil || !again {
		return false, err
	}
	if _, err := h.selector.Select(ctx, p, draft); err != nil {
		return false, err
	}
	log.Info("loan product reselected", map[string]interface{}{
		"loanType":   draft.LoanType,
		"loanAmount": draft.LoanAmount,
	})
	return true, nil
}

func (h *Handler) recordSaved(ctx context.Context, app *models.Application, section models.Section, sessionID string, created bool) {
	if created {
		h.audit.Record(ctx, audit.Event{
			Type:       audit.EventApplicationCreated,
			ResourceID: app.ID,
			SessionID:  sessionID,
			Details:    map[string]interface{}{"loanType": app.LoanType},
		})
	}
	eventType := audit.EventSectionSaved
	if section == models.SectionDocuments {
		eventType = audit.EventApplicationSubmitted
	}
	h.audit.Record(ctx, audit.Event{
		Type:       eventType,
		ResourceID: app.ID,
		SessionID:  sessionID,
		Details: map[string]interface{}{
			"section": string(section),
			"status":  string(app.Status),
		},
	})
}

func (h *Handler) invalidateStatus(ctx context.Context, app *models.Application, log logger.Logger) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, app.CNIC); err != nil {
		log.Warn("status cache not invalidated", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}
}

func (h *Handler) output(app *models.Application, sessionID string, failed []models.DocumentKind, stopped bool) *Output {
	return &Output{
		SessionID:         sessionID,
		ApplicationID:     app.ID,
		Status:            app.Status,
		CompletedSections: app.CompletedSections,
		NextSection:       app.NextIncompleteSection(),
		Submitted:         app.IsComplete(),
		Stopped:           stopped,
		FailedDocuments:   failed,
	}
}

func sectionTitle(s models.Section) string {
	switch s {
	case models.SectionPersonal:
		return "Personal Information"
	case models.SectionFinancial:
		return "Employment & Financial Information"
	case models.SectionReferences:
		return "References"
	case models.SectionDocuments:
		return "Documents"
	}
	return string(s)
}

func completedLabel(app *models.Application) string {
	if len(app.CompletedSections) == 0 {
		return "none"
	}
	return app.CompletedSectionsString()
}
