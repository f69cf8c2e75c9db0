// internal/workers/application/collect-sections/sections.go
package collectsections

import (
	"fmt"
	"os"
	"strings"

	"loan-desk/internal/common/console"
	"loan-desk/internal/models"
)

type collectFunc func(p *console.Prompter, app *models.Application) error

func (h *Handler) collectors() map[models.Section]collectFunc {
	return map[models.Section]collectFunc{
		models.SectionPersonal:   h.collectPersonal,
		models.SectionFinancial:  h.collectFinancial,
		models.SectionReferences: h.collectReferences,
		models.SectionDocuments:  h.collectDocuments,
	}
}

func (h *Handler) collectPersonal(p *console.Prompter, app *models.Application) error {
	fields := []struct {
		prompt string
		set    func(string) error
	}{
		{"Full name: ", app.SetFullName},
		{"Father's name: ", app.SetFathersName},
		{"Postal address: ", app.SetPostalAddress},
		{"Contact number (11 digits): ", app.SetContactNumber},
		{"Email: ", app.SetEmail},
		{"CNIC (13 digits, no dashes): ", app.SetCNIC},
		{"CNIC expiry date (DD-MM-YYYY): ", app.SetCNICExpiryDate},
	}
	for _, f := range fields {
		if _, err := p.AskValid(f.prompt, f.set); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) collectFinancial(p *console.Prompter, app *models.Application) error {
	if err := chooseEnum(p, "Employment status:", models.EmploymentStatuses, app.SetEmploymentStatus); err != nil {
		return err
	}
	if err := chooseEnum(p, "Marital status:", models.MaritalStatuses, app.SetMaritalStatus); err != nil {
		return err
	}
	if err := chooseEnum(p, "Gender:", models.Genders, app.SetGender); err != nil {
		return err
	}

	dependents, err := p.AskInt(fmt.Sprintf("Number of dependents (0-%d): ", models.MaxDependents), 0, models.MaxDependents)
	if err != nil {
		return err
	}
	if err := app.SetDependents(dependents); err != nil {
		return err
	}

	if _, err := p.AskFloat("Annual income: ", app.SetAnnualIncome); err != nil {
		return err
	}
	if _, err := p.AskFloat("Average monthly electricity bill: ", app.SetAvgElectricityBill); err != nil {
		return err
	}
	if _, err := p.AskFloat("Current electricity bill: ", app.SetCurrentElectricityBill); err != nil {
		return err
	}

	return h.collectExistingLoans(p, app)
}

func (h *Handler) collectExistingLoans(p *console.Prompter, app *models.Application) error {
	app.ClearExistingLoans()
	count, err := p.AskInt(fmt.Sprintf("How many existing loans do you have (0-%d)? ", h.config.MaxExistingLoans), 0, h.config.MaxExistingLoans)
	if err != nil {
		return err
	}

	for i := 1; i <= count; i++ {
		p.Printf("Existing loan %d of %d\n", i, count)
		loan, err := askExistingLoan(p)
		if err != nil {
			return err
		}
		app.AddExistingLoan(loan)
	}
	return nil
}

// askExistingLoan repeats until the entry is consistent. A due amount that
// does not close the total is corrected and the operator is told.
func askExistingLoan(p *console.Prompter) (models.ExistingLoan, error) {
	for {
		active, err := p.Confirm("  Is this loan still active?")
		if err != nil {
			return models.ExistingLoan{}, err
		}
		total, err := p.AskFloat("  Total loan amount: ", nil)
		if err != nil {
			return models.ExistingLoan{}, err
		}
		returned, err := p.AskFloat("  Amount returned so far: ", nil)
		if err != nil {
			return models.ExistingLoan{}, err
		}
		due, err := p.AskFloat("  Amount still due: ", nil)
		if err != nil {
			return models.ExistingLoan{}, err
		}
		bank, err := p.Ask("  Bank name: ")
		if err != nil {
			return models.ExistingLoan{}, err
		}
		category, err := p.Ask("  Loan category: ")
		if err != nil {
			return models.ExistingLoan{}, err
		}

		loan, err := models.NewExistingLoan(active, total, returned, bank, category)
		if err != nil {
			p.Printf("  Invalid loan: %v\n", err)
			continue
		}
		entered := loan
		entered.AmountDue = due
		if entered.Reconcile() {
			p.Printf("  Amount due adjusted to %.2f so that returned plus due equals the total.\n", entered.AmountDue)
		}
		return entered, nil
	}
}

func (h *Handler) collectReferences(p *console.Prompter, app *models.Application) error {
	for i := 0; i < 2; i++ {
		for {
			p.Printf("Reference %d\n", i+1)
			ref, err := askReference(p)
			if err != nil {
				return err
			}
			if err := app.SetReference(i, ref); err != nil {
				p.Printf("  Invalid reference: %v\n", err)
				continue
			}
			break
		}
	}
	return nil
}

func askReference(p *console.Prompter) (models.Reference, error) {
	var ref models.Reference
	prompts := []struct {
		prompt string
		dst    *string
		check  func(string) error
	}{
		{"  Name: ", &ref.Name, nil},
		{"  CNIC (13 digits): ", &ref.CNIC, func(v string) error { return models.ValidateCNIC("cnic", v) }},
		{"  CNIC issue date (DD-MM-YYYY): ", &ref.CNICIssueDate, func(v string) error { return models.ValidateDate("cnicIssueDate", v) }},
		{"  Phone number (11 digits): ", &ref.PhoneNumber, func(v string) error { return models.ValidatePhone("phoneNumber", v) }},
		{"  Email: ", &ref.Email, func(v string) error { return models.ValidateEmail("email", v) }},
	}
	for _, f := range prompts {
		var v string
		var err error
		if f.check != nil {
			v, err = p.AskValid(f.prompt, f.check)
		} else {
			v, err = p.Ask(f.prompt)
		}
		if err != nil {
			return models.Reference{}, err
		}
		*f.dst = v
	}
	return ref, nil
}

func (h *Handler) collectDocuments(p *console.Prompter, app *models.Application) error {
	for _, kind := range models.DocumentKinds {
		current := app.Documents.Path(kind)
		prompt := fmt.Sprintf("Path to %s image: ", documentLabel(kind))
		if current != "" {
			prompt = fmt.Sprintf("Path to %s image [%s]: ", documentLabel(kind), current)
		}
		_, err := p.AskValid(prompt, func(v string) error {
			if v == "" && current != "" {
				v = current
			}
			if err := checkReadableFile(v); err != nil {
				return err
			}
			return app.SetDocumentPath(kind, v)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func checkReadableFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("a file path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot open %s", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

func documentLabel(kind models.DocumentKind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

func chooseEnum[T ~string](p *console.Prompter, title string, values []T, set func(string) error) error {
	options := make([]string, len(values))
	for i, v := range values {
		options[i] = string(v)
	}
	idx, err := p.Choose(title, options)
	if err != nil {
		return err
	}
	return set(options[idx])
}
