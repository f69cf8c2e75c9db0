// internal/cli/lender.go
package cli

import (
	"context"
	"errors"

	"loan-desk/internal/common/console"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"
	applicationstatistics "loan-desk/internal/workers/lender/application-statistics"
	reviewapplication "loan-desk/internal/workers/lender/review-application"
)

type Reviewer interface {
	ListAll(ctx context.Context) ([]*models.Application, error)
	FilterByStatus(ctx context.Context, raw string) ([]*models.Application, error)
	Review(ctx context.Context, p *console.Prompter) (*reviewapplication.Output, error)
}

type StatisticsReporter interface {
	Execute(ctx context.Context, input *applicationstatistics.Input) (*applicationstatistics.Output, error)
}

// LenderREPL is the back-office menu.
type LenderREPL struct {
	reviewer Reviewer
	stats    StatisticsReporter
	logger   logger.Logger
}

func NewLenderREPL(reviewer Reviewer, stats StatisticsReporter, log logger.Logger) *LenderREPL {
	return &LenderREPL{
		reviewer: reviewer,
		stats:    stats,
		logger:   log.WithFields(map[string]interface{}{"role": "lender"}),
	}
}

func (r *LenderREPL) Run(ctx context.Context, p *console.Prompter) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Println()
		p.Println("=== Lender menu ===")
		p.Println("1) List all applications")
		p.Println("2) Filter applications by status")
		p.Println("3) Review pending applications")
		p.Println("4) Statistics")
		p.Println("0) Exit")

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
			err = r.listAll(ctx, p)
		case "2":
			err = r.filter(ctx, p)
		case "3":
			_, err = r.reviewer.Review(ctx, p)
		case "4":
			err = r.statistics(ctx, p)
		default:
			p.Println("Please choose one of the listed options.")
		}

		switch {
		case err == nil:
		case errors.Is(err, console.ErrExitRequested):
			p.Println("Returning to the lender menu.")
		case errors.Is(err, context.Canceled):
			return err
		default:
			r.logger.Error("lender flow failed", map[string]interface{}{"error": err.Error()})
			reportFailure(p, err)
		}
	}
}

func (r *LenderREPL) listAll(ctx context.Context, p *console.Prompter) error {
	apps, err := r.reviewer.ListAll(ctx)
	if err != nil {
		return err
	}
	reviewapplication.WriteTable(p.Out(), apps)
	return nil
}

func (r *LenderREPL) filter(ctx context.Context, p *console.Prompter) error {
	options := make([]string, len(models.AllStatuses))
	for i, s := range models.AllStatuses {
		options[i] = string(s)
	}
	idx, err := p.Choose("Status:", options)
	if err != nil {
		return err
	}
	apps, err := r.reviewer.FilterByStatus(ctx, options[idx])
	if err != nil {
		return err
	}
	reviewapplication.WriteTable(p.Out(), apps)
	return nil
}

func (r *LenderREPL) statistics(ctx context.Context, p *console.Prompter) error {
	out, err := r.stats.Execute(ctx, &applicationstatistics.Input{})
	if err != nil {
		return err
	}
	applicationstatistics.Write(p.Out(), out)
	return nil
}
