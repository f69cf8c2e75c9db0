// internal/workers/catalog/select-loan-product/models.go
package selectloanproduct

import "github.com/shopspring/decimal"

// Product is one row of a catalog table.
type Product struct {
	Category          string
	Description       string
	Price             decimal.Decimal
	DownPayment       decimal.Decimal
	InstallmentMonths int
}

// Financed returns the amount left after the down payment.
func (p Product) Financed() decimal.Decimal {
	return p.Price.Sub(p.DownPayment)
}

type Installment struct {
	Number int
	Month  int
	Year   int
	Amount decimal.Decimal
}

// Plan is the repayment schedule for a financed amount.
type Plan struct {
	Financed       decimal.Decimal
	MonthlyPayment decimal.Decimal
	Installments   []Installment
}

type Input struct {
	LoanType     string `json:"loanType"`
	ProductIndex int    `json:"productIndex"`
}

type Output struct {
	LoanType string  `json:"loanType"`
	Product  Product `json:"product"`
	Plan     *Plan   `json:"plan"`
}
