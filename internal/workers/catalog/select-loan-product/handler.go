// internal/workers/catalog/select-loan-product/handler.go
package selectloanproduct

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"loan-desk/internal/common/console"
	apperrors "loan-desk/internal/common/errors"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"

	"github.com/shopspring/decimal"
)

const (
	TaskType = "select-loan-product"

	catalogColumns = 5
)

var (
	ErrUnknownLoanType = errors.New("UNKNOWN_LOAN_TYPE")
	ErrCatalogEmpty    = errors.New("CATALOG_EMPTY")
	ErrProductNotFound = errors.New("PRODUCT_NOT_FOUND")
	ErrInvalidPlan     = errors.New("INVALID_PLAN")
)

type Handler struct {
	config *Config
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

// WithClock replaces the clock used to pick the installment start month.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Products loads the catalog table for loanType. Malformed rows are skipped
// and logged.
func (h *Handler) Products(loanType string) ([]Product, error) {
	path, ok := h.config.Files[loanType]
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLoanType, loanType)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(path, err)
	}
	defer f.Close()

	products, problems, err := ParseCatalog(f)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(path, err)
	}
	for _, p := range problems {
		h.logger.Warn("catalog row skipped", map[string]interface{}{
			"file":   path,
			"reason": p,
		})
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCatalogEmpty, path)
	}
	return products, nil
}

// ParseCatalog reads a catalog table. The first non-blank line is a header.
// Each row is split on '|' when present, otherwise on ','.
func ParseCatalog(r io.Reader) ([]Product, []string, error) {
	var (
		products []Product
		problems []string
		header   = true
		lineNo   int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		p, err := parseProduct(line)
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, problems, err
	}
	return products, problems, nil
}

func parseProduct(line string) (Product, error) {
	sep := ","
	if strings.Contains(line, "|") {
		sep = "|"
	}
	fields := strings.Split(line, sep)
	if len(fields) < catalogColumns {
		return Product{}, fmt.Errorf("expected %d columns, got %d", catalogColumns, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if fields[0] == "" {
		return Product{}, fmt.Errorf("category is empty")
	}
	price, err := decimal.NewFromString(fields[2])
	if err != nil {
		return Product{}, fmt.Errorf("price %q: %w", fields[2], err)
	}
	down, err := decimal.NewFromString(fields[3])
	if err != nil {
		return Product{}, fmt.Errorf("down payment %q: %w", fields[3], err)
	}
	months, err := strconv.Atoi(fields[4])
	if err != nil {
		return Product{}, fmt.Errorf("installment months %q: %w", fields[4], err)
	}

	switch {
	case !price.IsPositive():
		return Product{}, fmt.Errorf("price must be positive")
	case down.IsNegative() || down.GreaterThan(price):
		return Product{}, fmt.Errorf("down payment must be between 0 and the price")
	case months <= 0:
		return Product{}, fmt.Errorf("installment months must be positive")
	}

	return Product{
		Category:          fields[0],
		Description:       fields[1],
		Price:             price,
		DownPayment:       down,
		InstallmentMonths: months,
	}, nil
}

// InstallmentPlan spreads price minus downPayment over months equal payments
// rounded to two places. The last installment absorbs the rounding remainder.
func InstallmentPlan(price, downPayment decimal.Decimal, months, startMonth, startYear int) (*Plan, error) {
	if months <= 0 {
		return nil, fmt.Errorf("%w: months must be positive", ErrInvalidPlan)
	}
	if startMonth < 1 || startMonth > 12 {
		return nil, fmt.Errorf("%w: start month %d", ErrInvalidPlan, startMonth)
	}
	financed := price.Sub(downPayment)
	if financed.IsNegative() {
		return nil, fmt.Errorf("%w: down payment exceeds price", ErrInvalidPlan)
	}

	n := decimal.NewFromInt(int64(months))
	monthly := financed.DivRound(n, 2)
	last := financed.Sub(monthly.Mul(decimal.NewFromInt(int64(months - 1))))

	plan := &Plan{
		Financed:       financed,
		MonthlyPayment: monthly,
		Installments:   make([]Installment, 0, months),
	}
	month, year := startMonth, startYear
	for i := 1; i <= months; i++ {
		amount := monthly
		if i == months {
			amount = last
		}
		plan.Installments = append(plan.Installments, Installment{
			Number: i,
			Month:  month,
			Year:   year,
			Amount: amount,
		})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return plan, nil
}

// NextMonth returns the calendar month following now.
func NextMonth(now time.Time) (month, year int) {
	month, year = int(now.Month())+1, now.Year()
	if month > 12 {
		month, year = 1, year+1
	}
	return month, year
}

// Execute picks product ProductIndex (zero-based) from the loan type's table
// and computes its plan starting next month.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	products, err := h.Products(input.LoanType)
	if err != nil {
		return nil, err
	}
	if input.ProductIndex < 0 || input.ProductIndex >= len(products) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrProductNotFound, input.ProductIndex, len(products))
	}
	product := products[input.ProductIndex]

	month, year := NextMonth(h.now())
	plan, err := InstallmentPlan(product.Price, product.DownPayment, product.InstallmentMonths, month, year)
	if err != nil {
		return nil, err
	}

	h.logger.Info("loan product selected", map[string]interface{}{
		"loanType":       input.LoanType,
		"category":       product.Category,
		"monthlyPayment": plan.MonthlyPayment.StringFixed(2),
	})
	return &Output{LoanType: input.LoanType, Product: product, Plan: plan}, nil
}

// Apply copies the selected product and plan into app's loan fields.
func Apply(app *models.Application, out *Output) error {
	if err := app.SetLoanType(out.LoanType); err != nil {
		return err
	}
	if err := app.SetLoanAmount(out.Product.Price.InexactFloat64()); err != nil {
		return err
	}
	if err := app.SetDownPayment(out.Product.DownPayment.InexactFloat64()); err != nil {
		return err
	}
	if err := app.SetInstallmentMonths(out.Product.InstallmentMonths); err != nil {
		return err
	}
	if err := app.SetMonthlyPayment(out.Plan.MonthlyPayment.InexactFloat64()); err != nil {
		return err
	}
	first := out.Plan.Installments[0]
	if err := app.SetInstallmentStart(first.Month, first.Year); err != nil {
		return err
	}
	app.LoanCategory = out.Product.Category
	return nil
}

// Select walks the operator through loan type and product choice, then fills
// app once the plan is confirmed.
func (h *Handler) Select(ctx context.Context, p *console.Prompter, app *models.Application) (*Output, error) {
	for {
		typeIdx, err := p.Choose("Select a loan type:", titles(models.LoanTypes))
		if err != nil {
			return nil, err
		}
		loanType := models.LoanTypes[typeIdx]

		products, err := h.Products(loanType)
		if err != nil {
			h.logger.Error("catalog unavailable", map[string]interface{}{
				"loanType": loanType,
				"error":    err.Error(),
			})
			p.Printf("No %s loan products are available right now.\n", loanType)
			continue
		}

		options := make([]string, len(products))
		for i, prod := range products {
			options[i] = fmt.Sprintf("%s (%s) price %s, down payment %s, %d months",
				prod.Category, prod.Description, prod.Price.StringFixed(2), prod.DownPayment.StringFixed(2), prod.InstallmentMonths)
		}
		idx, err := p.Choose("Select a product:", options)
		if err != nil {
			return nil, err
		}

		out, err := h.Execute(ctx, &Input{LoanType: loanType, ProductIndex: idx})
		if err != nil {
			return nil, err
		}
		first := out.Plan.Installments[0]
		last := out.Plan.Installments[len(out.Plan.Installments)-1]
		p.Printf("Financed amount: %s\n", out.Plan.Financed.StringFixed(2))
		p.Printf("Monthly payment: %s for %d months, first due %02d-%d\n",
			out.Plan.MonthlyPayment.StringFixed(2), len(out.Plan.Installments), first.Month, first.Year)
		if !last.Amount.Equal(out.Plan.MonthlyPayment) {
			p.Printf("Final payment: %s\n", last.Amount.StringFixed(2))
		}

		ok, err := p.Confirm("Proceed with this loan?")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := Apply(app, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func titles(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v[:1]) + v[1:]
	}
	return out
}
