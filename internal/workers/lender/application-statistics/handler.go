// internal/workers/lender/application-statistics/handler.go
package applicationstatistics

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"
)

const (
	TaskType = "application-statistics"

	unspecifiedLoanType = "unspecified"
)

// ApplicationLister loads every stored application.
type ApplicationLister interface {
	LoadAll(ctx context.Context) ([]*models.Application, error)
}

type Handler struct {
	config *Config
	store  ApplicationLister
	logger logger.Logger
}

func NewHandler(config *Config, store ApplicationLister, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, _ *Input) (*Output, error) {
	apps, err := h.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	out := Compute(apps, h.config.CountIncomplete)
	h.logger.Debug("statistics computed", map[string]interface{}{
		"total": out.Total,
	})
	return out, nil
}

// Compute aggregates apps. Without countIncomplete, applications still being
// collected are left out of every figure.
func Compute(apps []*models.Application, countIncomplete bool) *Output {
	out := &Output{
		ByStatus:   make(map[models.Status]int),
		ByLoanType: make(map[string]int),
	}
	approved := 0
	for _, app := range apps {
		incomplete := !app.IsComplete()
		if incomplete && !countIncomplete {
			continue
		}
		out.Total++
		out.ByStatus[app.Status]++

		loanType := app.LoanType
		if loanType == "" {
			loanType = unspecifiedLoanType
		}
		out.ByLoanType[loanType]++
		out.RequestedAmount += app.LoanAmount

		switch {
		case app.Status == models.StatusApproved:
			approved++
			out.Decided++
			out.ApprovedAmount += app.LoanAmount
		case app.Status == models.StatusRejected:
			out.Decided++
		case app.Status == models.StatusSubmitted:
			out.PendingReview++
		case incomplete:
			out.InProgress++
		}
	}
	if out.Decided > 0 {
		out.ApprovalRate = float64(approved) / float64(out.Decided)
	}
	if approved > 0 {
		out.AverageApprovedLoan = out.ApprovedAmount / float64(approved)
	}
	return out
}

// Write prints out as a small report.
func Write(w io.Writer, out *Output) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total applications:\t%d\n", out.Total)
	fmt.Fprintf(tw, "In progress:\t%d\n", out.InProgress)
	fmt.Fprintf(tw, "Pending review:\t%d\n", out.PendingReview)
	fmt.Fprintf(tw, "Decided:\t%d\n", out.Decided)
	fmt.Fprintf(tw, "Approval rate:\t%.1f%%\n", out.ApprovalRate*100)
	fmt.Fprintf(tw, "Requested amount:\t%.2f\n", out.RequestedAmount)
	fmt.Fprintf(tw, "Approved amount:\t%.2f\n", out.ApprovedAmount)
	fmt.Fprintf(tw, "Average approved loan:\t%.2f\n", out.AverageApprovedLoan)

	fmt.Fprintln(tw, "\nBy status:")
	for _, s := range models.AllStatuses {
		if n := out.ByStatus[s]; n > 0 {
			fmt.Fprintf(tw, "  %s\t%d\n", s, n)
		}
	}

	fmt.Fprintln(tw, "\nBy loan type:")
	types := make([]string, 0, len(out.ByLoanType))
	for t := range out.ByLoanType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(tw, "  %s\t%d\n", t, out.ByLoanType[t])
	}
	tw.Flush()
}
