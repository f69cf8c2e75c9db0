// internal/workers/application/collect-sections/handler_test.go
package collectsections

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"loan-desk/internal/common/audit"
	"loan-desk/internal/common/config"
	"loan-desk/internal/common/console"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"
	"loan-desk/internal/store"
	checkstatus "loan-desk/internal/workers/application/check-status"
	selectloanproduct "loan-desk/internal/workers/catalog/select-loan-product"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type stubSelector struct {
	calls int
}

func (s *stubSelector) Select(ctx context.Context, p *console.Prompter, app *models.Application) (*selectloanproduct.Output, error) {
	s.calls++
	app.LoanType = models.LoanTypePersonal
	app.LoanCategory = "Laptop"
	app.LoanAmount = 100000
	app.DownPayment = 10000
	app.InstallmentMonths = 12
	app.MonthlyPayment = 7500
	app.InstallmentStartMonth = 11
	app.InstallmentStartYear = 2026
	return &selectloanproduct.Output{LoanType: models.LoanTypePersonal}, nil
}

// sequenceSelector applies one product per call, repeating the last.
type sequenceSelector struct {
	calls    int
	products []func(app *models.Application)
}

func (s *sequenceSelector) Select(ctx context.Context, p *console.Prompter, app *models.Application) (*selectloanproduct.Output, error) {
	i := s.calls
	if i >= len(s.products) {
		i = len(s.products) - 1
	}
	s.calls++
	s.products[i](app)
	return &selectloanproduct.Output{LoanType: app.LoanType}, nil
}

func carLoan(app *models.Application) {
	app.LoanType = models.LoanTypeCar
	app.LoanCategory = "Toyota Fortuner"
	app.LoanAmount = 5000000
	app.InstallmentMonths = 60
}

func laptopLoan(app *models.Application) {
	app.LoanType = models.LoanTypePersonal
	app.LoanCategory = "Laptop"
	app.LoanAmount = 100000
	app.InstallmentMonths = 12
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Record(ctx context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func (r *recordingAudit) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type MockStore struct {
	SaveFunc           func(ctx context.Context, app *models.Application) (*store.SaveResult, error)
	UpdateSectionFunc  func(ctx context.Context, app *models.Application, section models.Section) error
	FindByIDFunc       func(ctx context.Context, id string) (*models.Application, error)
	FindIncompleteFunc func(ctx context.Context, id, cnic string) (*models.Application, error)
}

func (m *MockStore) Save(ctx context.Context, app *models.Application) (*store.SaveResult, error) {
	return m.SaveFunc(ctx, app)
}

func (m *MockStore) UpdateSection(ctx context.Context, app *models.Application, section models.Section) error {
	return m.UpdateSectionFunc(ctx, app, section)
}

func (m *MockStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *MockStore) FindIncomplete(ctx context.Context, id, cnic string) (*models.Application, error) {
	return m.FindIncompleteFunc(ctx, id, cnic)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		ChatbotName:      "LoanBot",
		Rules:            models.DefaultRules(),
		MaxExistingLoans: 10,
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(config.StorageConfig{
		RecordsFile:  filepath.Join(dir, "applications.txt"),
		DocumentsDir: filepath.Join(dir, "documents"),
		Delimiter:    "|",
		IDBaseline:   1000,
	}, logger.NewTestLogger(t), store.WithClock(func() time.Time {
		return time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	return st
}

func writeUpload(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("jpeg bytes for "+name), 0o644))
	return path
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

var personalAnswers = []string{
	"Ayesha Khan",
	"Imran Khan",
	"House 12, Street 4, Lahore",
	"03001234567",
	"ayesha@example.com",
	"3520212345671",
	"01-01-2030",
}

// employed, married, female, 3 dependents, income, bills, one loan whose due
// amount needs correcting
var financialAnswers = []string{
	"1", "2", "2", "3",
	"600000", "4500", "5200",
	"1", "y", "100000", "40000", "50000", "HBL", "personal",
}

func referenceAnswers(secondCNIC string) []string {
	return []string{
		"Bilal Ahmed", "1111111111111", "15-06-2015", "03211234567", "bilal@example.com",
		"Sara Malik", secondCNIC, "20-02-2018", "03331234567", "sara@example.com",
	}
}

func documentAnswers(t *testing.T) []string {
	return []string{
		writeUpload(t, "front.jpg"),
		writeUpload(t, "back.jpg"),
		writeUpload(t, "bill.jpg"),
		writeUpload(t, "slip.jpg"),
	}
}

func join(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// ==========================
// Full Flow Tests
// ==========================

func TestHandler_StartNew_FullSubmission(t *testing.T) {
	st := newTestStore(t)
	rec := &recordingAudit{}
	sel := &stubSelector{}
	h := NewHandler(createTestConfig(), st, sel, nil, rec, logger.NewTestLogger(t))

	lines := join(
		personalAnswers, []string{"y"},
		financialAnswers, []string{"y"},
		referenceAnswers("1111111111111"),
		referenceAnswers("2222222222222"), []string{"y"},
		documentAnswers(t),
	)
	var out bytes.Buffer
	p := console.NewPrompter(script(lines...), &out, "exit")

	res, err := h.Execute(context.Background(), p, &Input{})
	require.NoError(t, err)

	assert.Equal(t, 1, sel.calls)
	assert.Equal(t, "1001", res.ApplicationID)
	assert.True(t, res.Submitted)
	assert.False(t, res.Stopped)
	assert.Equal(t, models.StatusSubmitted, res.Status)
	assert.Equal(t, models.SectionComplete, res.NextSection)
	assert.Empty(t, res.FailedDocuments)
	assert.NotEmpty(t, res.SessionID)

	transcript := out.String()
	assert.Contains(t, transcript, "Amount due adjusted to 60000.00")
	assert.Contains(t, transcript, "Reference CNICs must be different")
	assert.Contains(t, transcript, "has been submitted for review")

	saved, err := st.FindByID(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, saved.Status)
	assert.Equal(t, "15-10-2026", saved.SubmissionDate)
	assert.Equal(t, models.SectionOrder, saved.CompletedSections)
	assert.Equal(t, "Ayesha Khan", saved.FullName)
	assert.Equal(t, models.EmploymentEmployed, saved.EmploymentStatus)
	assert.Equal(t, models.MaritalMarried, saved.MaritalStatus)
	assert.Equal(t, models.GenderFemale, saved.Gender)
	require.Len(t, saved.ExistingLoans, 1)
	assert.Equal(t, 60000.0, saved.ExistingLoans[0].AmountDue)
	assert.Equal(t, "2222222222222", saved.References[1].CNIC)
	assert.Equal(t, "Laptop", saved.LoanCategory)
	assert.Equal(t, store.ManagedPath(st.DocumentsDir(), "1001", models.DocumentSalarySlip), saved.Documents.SalarySlip)

	assert.Equal(t, []string{
		audit.EventApplicationCreated,
		audit.EventSectionSaved,
		audit.EventSectionSaved,
		audit.EventSectionSaved,
		audit.EventApplicationSubmitted,
	}, rec.types())
	for _, e := range rec.events {
		assert.Equal(t, "1001", e.ResourceID)
		assert.Equal(t, res.SessionID, e.SessionID)
	}
}

func TestHandler_StopAndResume(t *testing.T) {
	st := newTestStore(t)
	h := NewHandler(createTestConfig(), st, nil, nil, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	var out bytes.Buffer
	first, err := h.StartNew(ctx, console.NewPrompter(script(join(personalAnswers, []string{"n"})...), &out, "exit"))
	require.NoError(t, err)
	assert.True(t, first.Stopped)
	assert.False(t, first.Submitted)
	assert.Equal(t, models.StatusC2, first.Status)
	assert.Equal(t, models.SectionFinancial, first.NextSection)
	assert.Contains(t, out.String(), "Application ID: 1001")

	// zero income fails the debt-to-income gate, so the section is entered again
	zeroIncome := append([]string{}, financialAnswers...)
	zeroIncome[4] = "0"
	out.Reset()
	second, err := h.Resume(ctx, console.NewPrompter(script(join(zeroIncome, financialAnswers, []string{"n"})...), &out, "exit"), "1001", "3520212345671")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Resuming application 1001")
	assert.Contains(t, out.String(), "Next section: Employment & Financial Information")
	assert.Contains(t, out.String(), "Please correct the following")
	assert.Equal(t, models.StatusC3, second.Status)
	assert.Equal(t, []models.Section{models.SectionPersonal, models.SectionFinancial}, second.CompletedSections)

	saved, err := st.FindIncomplete(ctx, "1001", "3520212345671")
	require.NoError(t, err)
	assert.Equal(t, 600000.0, saved.AnnualIncome)
	assert.Equal(t, models.SectionReferences, saved.NextIncompleteSection())
}

func TestHandler_Resume_NotFound(t *testing.T) {
	st := newTestStore(t)
	h := NewHandler(createTestConfig(), st, nil, nil, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := h.StartNew(ctx, console.NewPrompter(script(join(personalAnswers, []string{"n"})...), &bytes.Buffer{}, "exit"))
	require.NoError(t, err)

	tests := []struct {
		name string
		id   string
		cnic string
	}{
		{name: "wrong cnic", id: "1001", cnic: "9999999999999"},
		{name: "unknown id", id: "2002", cnic: "3520212345671"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Resume(ctx, console.NewPrompter(strings.NewReader(""), &bytes.Buffer{}, "exit"), tt.id, tt.cnic)
			assert.ErrorIs(t, err, ErrNoIncompleteApplication)
		})
	}
}

func TestHandler_Resume_SubmittedIsNotResumable(t *testing.T) {
	st := newTestStore(t)
	h := NewHandler(createTestConfig(), st, nil, nil, nil, logger.NewTestLogger(t))

	lines := join(
		personalAnswers, []string{"y"},
		financialAnswers, []string{"y"},
		referenceAnswers("2222222222222"), []string{"y"},
		documentAnswers(t),
	)
	_, err := h.StartNew(context.Background(), console.NewPrompter(script(lines...), &bytes.Buffer{}, "exit"))
	require.NoError(t, err)

	_, err = h.Resume(context.Background(), console.NewPrompter(strings.NewReader(""), &bytes.Buffer{}, "exit"), "1001", "3520212345671")
	assert.ErrorIs(t, err, ErrNoIncompleteApplication)
}

func TestHandler_ExitMidSectionPersistsNothing(t *testing.T) {
	st := newTestStore(t)
	h := NewHandler(createTestConfig(), st, nil, nil, nil, logger.NewTestLogger(t))

	_, err := h.StartNew(context.Background(), console.NewPrompter(script("Ayesha Khan", "EXIT"), &bytes.Buffer{}, "exit"))
	assert.ErrorIs(t, err, console.ErrExitRequested)

	apps, err := st.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestHandler_InvalidFieldRetriesPrompt(t *testing.T) {
	st := newTestStore(t)
	h := NewHandler(createTestConfig(), st, nil, nil, nil, logger.NewTestLogger(t))

	answers := []string{
		"A1", "Ayesha Khan",
		"Imran Khan",
		"House 12, Street 4, Lahore",
		"0300-123", "03001234567",
		"ayesha@example.com",
		"3520212345671",
		"01-01-2030",
	}

	var out bytes.Buffer
	res, err := h.StartNew(context.Background(), console.NewPrompter(script(join(answers, []string{"n"})...), &out, "exit"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusC2, res.Status)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid input"))
}

func TestHandler_ReselectLoanAfterIncomeRejection(t *testing.T) {
	st := newTestStore(t)
	sel := &sequenceSelector{products: []func(*models.Application){carLoan, laptopLoan}}
	h := NewHandler(createTestConfig(), st, sel, nil, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := h.StartNew(ctx, console.NewPrompter(script(join(personalAnswers, []string{"n"})...), &bytes.Buffer{}, "exit"))
	require.NoError(t, err)

	// decline once and re-enter the section, then accept a smaller product
	lines := join(
		financialAnswers, []string{"n"},
		financialAnswers, []string{"y"},
		[]string{"y"},
		referenceAnswers("2222222222222"), []string{"y"},
		documentAnswers(t),
	)
	var out bytes.Buffer
	res, err := h.Resume(ctx, console.NewPrompter(script(lines...), &out, "exit"), "1001", "3520212345671")
	require.NoError(t, err)

	assert.Equal(t, 2, sel.calls)
	assert.True(t, res.Submitted)
	assert.Equal(t, 2, strings.Count(out.String(), "does not fit the income entered"))
	assert.Contains(t, out.String(), "exceeds 2 times annual income")
	assert.Contains(t, out.String(), "Please correct the following")

	saved, err := st.FindByID(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, saved.Status)
	assert.Equal(t, models.LoanTypePersonal, saved.LoanType)
	assert.Equal(t, 100000.0, saved.LoanAmount)
	assert.Equal(t, "Laptop", saved.LoanCategory)
}

func TestHandler_SavesInvalidateStatusCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	st := newTestStore(t)
	status := checkstatus.NewHandler(&checkstatus.Config{
		CacheEnabled: true,
		CacheTTL:     10 * time.Minute,
		KeyPrefix:    "test:status:",
	}, st, rdb, logger.NewTestLogger(t))
	h := NewHandler(createTestConfig(), st, nil, status, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := h.StartNew(ctx, console.NewPrompter(script(join(personalAnswers, []string{"n"})...), &bytes.Buffer{}, "exit"))
	require.NoError(t, err)

	before, err := status.Execute(ctx, &checkstatus.Input{CNIC: "3520212345671"})
	require.NoError(t, err)
	require.Len(t, before.Applications, 1)
	assert.Equal(t, models.StatusC2, before.Applications[0].Status)
	assert.True(t, mr.Exists("test:status:3520212345671"))

	_, err = h.Resume(ctx, console.NewPrompter(script(join(financialAnswers, []string{"n"})...), &bytes.Buffer{}, "exit"), "1001", "3520212345671")
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:status:3520212345671"))

	after, err := status.Execute(ctx, &checkstatus.Input{CNIC: "3520212345671"})
	require.NoError(t, err)
	assert.False(t, after.Cached)
	require.Len(t, after.Applications, 1)
	assert.Equal(t, models.StatusC3, after.Applications[0].Status)
	assert.Equal(t, models.SectionReferences, after.Applications[0].NextSection)
}

type failingCache struct{ calls int }

func (f *failingCache) Invalidate(ctx context.Context, cnic string) error {
	f.calls++
	return errors.New("redis down")
}

func TestHandler_CacheFailureDoesNotStopCollection(t *testing.T) {
	st := newTestStore(t)
	cache := &failingCache{}
	h := NewHandler(createTestConfig(), st, nil, cache, nil, logger.NewTestLogger(t))

	res, err := h.StartNew(context.Background(), console.NewPrompter(script(join(personalAnswers, []string{"n"})...), &bytes.Buffer{}, "exit"))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, models.StatusC2, res.Status)
}

// ==========================
// Store Failure Tests
// ==========================

func TestHandler_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")

	tests := []struct {
		name  string
		store *MockStore
	}{
		{
			name: "update section fails",
			store: &MockStore{
				UpdateSectionFunc: func(ctx context.Context, app *models.Application, section models.Section) error {
					return storeErr
				},
			},
		},
		{
			name: "re-read fails",
			store: &MockStore{
				UpdateSectionFunc: func(ctx context.Context, app *models.Application, section models.Section) error {
					app.ID = "1001"
					app.CompleteSection(section)
					return nil
				},
				FindByIDFunc: func(ctx context.Context, id string) (*models.Application, error) {
					return nil, storeErr
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingAudit{}
			h := NewHandler(createTestConfig(), tt.store, nil, nil, rec, logger.NewTestLogger(t))
			_, err := h.StartNew(context.Background(), console.NewPrompter(script(personalAnswers...), &bytes.Buffer{}, "exit"))
			assert.ErrorIs(t, err, storeErr)
		})
	}
}

func TestHandler_CopyFailureReported(t *testing.T) {
	app := models.NewApplication()
	app.ID = "1001"
	app.CNIC = "3520212345671"
	app.CompletedSections = []models.Section{models.SectionPersonal, models.SectionFinancial, models.SectionReferences}
	app.Status = models.StatusIncompleteDocuments

	var saved *models.Application
	mock := &MockStore{
		FindIncompleteFunc: func(ctx context.Context, id, cnic string) (*models.Application, error) {
			return app.Clone(), nil
		},
		SaveFunc: func(ctx context.Context, a *models.Application) (*store.SaveResult, error) {
			saved = a.Clone()
			return &store.SaveResult{ApplicationID: a.ID, FailedDocuments: []models.DocumentKind{models.DocumentSalarySlip}}, nil
		},
		FindByIDFunc: func(ctx context.Context, id string) (*models.Application, error) {
			return saved, nil
		},
	}
	h := NewHandler(createTestConfig(), mock, nil, nil, nil, logger.NewTestLogger(t))

	var out bytes.Buffer
	res, err := h.Resume(context.Background(), console.NewPrompter(script(documentAnswers(t)...), &out, "exit"), "1001", "3520212345671")
	require.NoError(t, err)
	assert.True(t, res.Submitted)
	assert.Equal(t, []models.DocumentKind{models.DocumentSalarySlip}, res.FailedDocuments)
	assert.Contains(t, out.String(), "document salary_slip could not be stored")
}

func TestLoadConfig(t *testing.T) {
	cfg := config.Default()
	c := LoadConfig(cfg)
	assert.Equal(t, cfg.App.ChatbotName, c.ChatbotName)
	assert.Equal(t, cfg.Rules.DebtToIncomeWarningRatio, c.Rules.DebtToIncomeWarningRatio)
	assert.Equal(t, 10, c.MaxExistingLoans)
}
