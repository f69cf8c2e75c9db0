// internal/cli/user.go
package cli

import (
	"context"
	"errors"
	"fmt"

	"loan-desk/internal/common/console"
	apperrors "loan-desk/internal/common/errors"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"
	checkstatus "loan-desk/internal/workers/application/check-status"
	collectsections "loan-desk/internal/workers/application/collect-sections"
	matchutterance "loan-desk/internal/workers/conversation/match-utterance"
)

// Collector runs the section dialogue for new and resumed applications.
type Collector interface {
	StartNew(ctx context.Context, p *console.Prompter) (*collectsections.Output, error)
	Resume(ctx context.Context, p *console.Prompter, id, cnic string) (*collectsections.Output, error)
}

type StatusChecker interface {
	Execute(ctx context.Context, input *checkstatus.Input) (*checkstatus.Output, error)
}

type Responder interface {
	Match(text string) *matchutterance.Output
}

// UserREPL is the applicant-facing menu.
type UserREPL struct {
	botName   string
	collector Collector
	status    StatusChecker
	responder Responder
	logger    logger.Logger
}

func NewUserREPL(botName string, collector Collector, status StatusChecker, responder Responder, log logger.Logger) *UserREPL {
	return &UserREPL{
		botName:   botName,
		collector: collector,
		status:    status,
		responder: responder,
		logger:    log.WithFields(map[string]interface{}{"role": "user"}),
	}
}

// Run shows the menu until the exit sentinel is typed at the menu prompt or
// the input ends. The sentinel typed inside a flow returns to the menu.
func (r *UserREPL) Run(ctx context.Context, p *console.Prompter) error {
	p.Printf("Hello, I am %s. Type '%s' at any prompt to leave it.\n", r.botName, p.ExitSentinel())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Println()
		p.Printf("=== %s ===\n", r.botName)
		p.Println("1) Apply for a new loan")
		p.Println("2) Resume an application")
		p.Println("3) Check application status")
		p.Println("0) Exit")
		p.Println("Or just type a question.")

		choice, err := p.Ask("> ")
		if err != nil {
			if errors.Is(err, console.ErrExitRequested) {
				p.Println("Goodbye.")
				return nil
			}
			return err
		}

		switch choice {
		case "":
			continue
		case "0":
			p.Println("Goodbye.")
			return nil
		case "1":
			err = r.apply(ctx, p)
		case "2":
			err = r.resume(ctx, p)
		case "3":
			err = r.checkStatus(ctx, p)
		default:
			r.chat(p, choice)
		}
		if err := r.settle(p, err); err != nil {
			return err
		}
	}
}

// settle reports a flow error and decides whether the menu keeps running.
func (r *UserREPL) settle(p *console.Prompter, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, console.ErrExitRequested):
		p.Println("Returning to the main menu.")
		return nil
	case errors.Is(err, context.Canceled):
		return err
	default:
		r.logger.Error("user flow failed", map[string]interface{}{"error": err.Error()})
		reportFailure(p, err)
		return nil
	}
}

// reportFailure prints err and, for transient store or delivery failures,
// invites the operator to retry.
func reportFailure(p *console.Prompter, err error) {
	p.Printf("Something went wrong: %v\n", err)
	if stdErr, ok := apperrors.AsStandardError(err); ok && apperrors.IsRetryableErrorCode(stdErr.Code) {
		p.Println("This is usually temporary. Please try again.")
	}
}

func (r *UserREPL) apply(ctx context.Context, p *console.Prompter) error {
	out, err := r.collector.StartNew(ctx, p)
	if err != nil {
		return err
	}
	r.logger.Info("application session finished", map[string]interface{}{
		"applicationId": out.ApplicationID,
		"submitted":     out.Submitted,
	})
	return nil
}

func (r *UserREPL) resume(ctx context.Context, p *console.Prompter) error {
	id, err := p.AskValid("Application ID: ", func(v string) error {
		if v == "" {
			return fmt.Errorf("an application ID is required")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cnic, err := p.AskValid("CNIC (13 digits): ", func(v string) error {
		return models.ValidateCNIC("cnic", v)
	})
	if err != nil {
		return err
	}

	_, err = r.collector.Resume(ctx, p, id, cnic)
	if errors.Is(err, collectsections.ErrNoIncompleteApplication) {
		p.Println("No incomplete application matches that ID and CNIC.")
		return nil
	}
	return err
}

func (r *UserREPL) checkStatus(ctx context.Context, p *console.Prompter) error {
	cnic, err := p.AskValid("CNIC (13 digits): ", func(v string) error {
		return models.ValidateCNIC("cnic", v)
	})
	if err != nil {
		return err
	}

	out, err := r.status.Execute(ctx, &checkstatus.Input{CNIC: cnic})
	if err != nil {
		return err
	}
	if len(out.Applications) == 0 {
		p.Printf("No applications found for CNIC %s.\n", cnic)
		return nil
	}
	for _, a := range out.Applications {
		p.Printf("Application %s: %s", a.ApplicationID, a.Status)
		if a.LoanType != "" {
			p.Printf(" (%s loan, %.2f)", a.LoanType, a.LoanAmount)
		}
		p.Println()
		if a.NextSection != models.SectionComplete && a.NextSection != "" {
			p.Printf("  Next section to complete: %s\n", a.NextSection)
		}
		if a.RejectionReason != "" {
			p.Printf("  Reason: %s\n", a.RejectionReason)
		}
	}
	return nil
}

func (r *UserREPL) chat(p *console.Prompter, text string) {
	if r.responder == nil {
		p.Println("Please choose one of the listed options.")
		return
	}
	p.Printf("%s: %s\n", r.botName, r.responder.Match(text).Response)
}
