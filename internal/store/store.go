// internal/store/store.go
package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"loan-desk/internal/common/config"
	apperrors "loan-desk/internal/common/errors"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/common/metrics"
	"loan-desk/internal/common/observability"
	"loan-desk/internal/models"
)

// DateLayout is the DD-MM-YYYY layout used for submission dates.
const DateLayout = "02-01-2006"

const maxLineBytes = 1 << 20

var ErrNotFound = errors.New("application not found")

// SaveResult describes the outcome of Save.
type SaveResult struct {
	ApplicationID   string
	Appended        bool
	FailedDocuments []models.DocumentKind
}

// Store is the flat-file application store. Every mutation holds an
// exclusive lock on the lock file and replaces the records file atomically;
// reads take no lock and see either the old or the new file.
type Store struct {
	cfg    config.StorageConfig
	codec  *Codec
	logger logger.Logger
	obs    *observability.Observability
	now    func() time.Time
	write  func(path string, lines []string) error
}

type Option func(*Store)

// WithObservability records store.operations and store.duration on obs.
func WithObservability(obs *observability.Observability) Option {
	return func(s *Store) { s.obs = obs }
}

// WithClock overrides the clock used for submission dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(cfg config.StorageConfig, log logger.Logger, opts ...Option) (*Store, error) {
	if cfg.RecordsFile == "" {
		return nil, fmt.Errorf("records file is required")
	}
	if cfg.DocumentsDir == "" {
		return nil, fmt.Errorf("documents dir is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.RecordsFile), 0o755); err != nil {
		return nil, apperrors.NewStoreIOFailedError("init", err)
	}
	if err := os.MkdirAll(cfg.DocumentsDir, 0o755); err != nil {
		return nil, apperrors.NewStoreIOFailedError("init", err)
	}

	s := &Store{
		cfg:    cfg,
		codec:  NewCodec(cfg.DelimiterRune()),
		logger: log.WithFields(map[string]interface{}{"component": "store", "recordsFile": cfg.RecordsFile}),
		now:    time.Now,
		write:  writeAtomic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) DocumentsDir() string {
	return s.cfg.DocumentsDir
}

// GenerateID returns max(existing numeric IDs, baseline)+1, zero padded to
// four digits. Non-numeric IDs are ignored.
func (s *Store) GenerateID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lines, err := s.readLines()
	if err != nil {
		return "", err
	}
	return s.nextID(lines), nil
}

func (s *Store) nextID(lines []string) string {
	maxID := s.cfg.IDBaseline
	for _, line := range lines {
		fields := s.codec.Split(line)
		n, err := strconv.Atoi(fields[colID])
		if err != nil {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("%04d", maxID+1)
}

// Save assigns an ID and defaults if needed, copies the documents into
// managed storage and writes the record. A failed document copy leaves a
// COPY_FAILED marker in that path and does not fail the save.
func (s *Store) Save(ctx context.Context, app *models.Application) (result *SaveResult, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "save", start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// app is only updated once the new file is in place.
	draft := app.Clone()
	err = s.mutate(func(lines []string) ([]string, error) {
		if draft.ID == "" {
			draft.ID = s.nextID(lines)
		}
		if draft.Status == "" {
			draft.Status = models.StatusSubmitted
		}
		if draft.SubmissionDate == "" {
			draft.SubmissionDate = s.now().Format(DateLayout)
		}

		failed := s.copyDocuments(draft)
		updated, appended := s.upsert(lines, draft)
		result = &SaveResult{ApplicationID: draft.ID, Appended: appended, FailedDocuments: failed}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	*app = *draft

	if app.Status == models.StatusSubmitted {
		metrics.ApplicationsSubmitted.Inc()
	}
	s.logger.Info("application saved", map[string]interface{}{
		"applicationId":   app.ID,
		"status":          string(app.Status),
		"appended":        result.Appended,
		"failedDocuments": len(result.FailedDocuments),
	})
	return result, nil
}

// UpdateSection marks section complete on app, advances its checkpoint and
// replaces the stored record for app.ID (appending if absent).
func (s *Store) UpdateSection(ctx context.Context, app *models.Application, section models.Section) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "update_section", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := models.ParseSection(string(section)); !ok {
		return fmt.Errorf("unknown section %q", section)
	}

	draft := app.Clone()
	err = s.mutate(func(lines []string) ([]string, error) {
		if draft.ID == "" {
			draft.ID = s.nextID(lines)
		}
		draft.CompleteSection(section)
		updated, _ := s.upsert(lines, draft)
		return updated, nil
	})
	if err != nil {
		return err
	}
	*app = *draft

	metrics.SectionsSaved.WithLabelValues(string(section)).Inc()
	s.logger.Info("section saved", map[string]interface{}{
		"applicationId": app.ID,
		"section":       string(section),
		"status":        string(app.Status),
	})
	return nil
}

// UpdateStatus rewrites only the status column of the record with id and,
// when reason is non-empty, the rejection reason column.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.Status, reason string) error {
	return s.TransitionStatus(ctx, id, "", status, reason)
}

// TransitionStatus is UpdateStatus guarded by the current status: when from
// is set, the record must still carry it once the lock is held, otherwise
// the write is refused with INVALID_STATUS_TRANSITION.
func (s *Store) TransitionStatus(ctx context.Context, id string, from, status models.Status, reason string) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "update_status", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := models.ParseStatus(string(status)); !ok {
		return apperrors.NewValidationFailedError(fmt.Sprintf("unknown status %q", status))
	}

	err = s.mutate(func(lines []string) ([]string, error) {
		for i, line := range lines {
			fields := s.codec.Split(line)
			if fields[colID] != id {
				continue
			}
			if len(fields) > colRejectionReason {
				if from != "" && models.Status(fields[colStatus]) != from {
					return nil, apperrors.NewInvalidTransitionError(fields[colStatus], string(status))
				}
				fields[colStatus] = string(status)
				if reason != "" {
					fields[colRejectionReason] = s.codec.text(reason)
				}
				lines[i] = strings.Join(fields, s.codec.Delimiter())
				return lines, nil
			}

			app, _, derr := s.codec.Decode(line)
			if derr != nil {
				return nil, apperrors.NewRecordParseFailedError(i+1, derr)
			}
			if from != "" && app.Status != from {
				return nil, apperrors.NewInvalidTransitionError(string(app.Status), string(status))
			}
			app.Status = status
			if reason != "" {
				app.RejectionReason = reason
			}
			lines[i] = s.codec.Encode(app)
			return lines, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	if err != nil {
		s.logger.Warn("status update failed", map[string]interface{}{
			"applicationId": id,
			"status":        string(status),
			"error":         err.Error(),
		})
		return err
	}

	metrics.StatusUpdates.WithLabelValues(string(status)).Inc()
	s.logger.Info("status updated", map[string]interface{}{
		"applicationId": id,
		"status":        string(status),
	})
	return nil
}

// LoadAll decodes every record. Lines below MinColumns are skipped with a warning.
func (s *Store) LoadAll(ctx context.Context) (apps []*models.Application, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "load_all", start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := s.readLines()
	if err != nil {
		return nil, err
	}

	apps = make([]*models.Application, 0, len(lines))
	for i, line := range lines {
		app, ok := s.decode(i+1, line)
		if ok {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

// FindByID returns the record with id or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*models.Application, error) {
	apps, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FindByCNIC returns every application filed under cnic. No match is an
// empty result, not an error.
func (s *Store) FindByCNIC(ctx context.Context, cnic string) ([]*models.Application, error) {
	apps, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*models.Application
	for _, app := range apps {
		if app.CNIC == cnic {
			out = append(out, app)
		}
	}
	return out, nil
}

// FindIncomplete returns the application matching both id and cnic that
// still needs collection.
func (s *Store) FindIncomplete(ctx context.Context, id, cnic string) (*models.Application, error) {
	app, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CNIC != cnic || app.IsComplete() {
		return nil, fmt.Errorf("%w: no incomplete application %s for this CNIC", ErrNotFound, id)
	}
	return app, nil
}

func (s *Store) decode(lineNo int, line string) (*models.Application, bool) {
	app, report, err := s.codec.Decode(line)
	if err != nil {
		metrics.RecordDecodeWarnings.Inc()
		s.logger.Warn("skipping record", map[string]interface{}{
			"line":  lineNo,
			"error": err.Error(),
		})
		return nil, false
	}
	if len(report.Warnings) > 0 {
		metrics.RecordDecodeWarnings.Add(float64(len(report.Warnings)))
		s.logger.Warn("record decoded with defaults", map[string]interface{}{
			"line":          lineNo,
			"applicationId": app.ID,
			"warnings":      report.Warnings,
		})
	}
	if len(report.Skipped) > 0 {
		s.logger.Debug("record missing optional fields", map[string]interface{}{
			"line":          lineNo,
			"applicationId": app.ID,
			"skipped":       report.Skipped,
		})
	}
	return app, true
}

// copyDocuments moves each document into managed storage. Paths already in
// managed storage are left alone; earlier failure markers are retried.
func (s *Store) copyDocuments(app *models.Application) []models.DocumentKind {
	var failed []models.DocumentKind
	for _, kind := range models.DocumentKinds {
		src := app.Documents.Path(kind)
		if src == "" {
			continue
		}
		if IsCopyFailed(src) {
			src = stripCopyFailed(src)
		}
		if isUnder(src, s.cfg.DocumentsDir) {
			continue
		}

		dst := ManagedPath(s.cfg.DocumentsDir, app.ID, kind)
		if err := CopyDocument(src, dst); err != nil {
			copyErr := apperrors.NewDocumentCopyFailedError(src, err)
			s.logger.WithError(copyErr).Warn("document copy failed", map[string]interface{}{
				"applicationId": app.ID,
				"document":      string(kind),
			})
			metrics.DocumentCopies.WithLabelValues("failed").Inc()
			app.Documents.Set(kind, CopyFailedPrefix+" "+src)
			failed = append(failed, kind)
			continue
		}
		metrics.DocumentCopies.WithLabelValues("ok").Inc()
		app.Documents.Set(kind, dst)
	}
	return failed
}

// upsert replaces the line for app.ID or appends a new one, keeping at most
// one record per ID.
func (s *Store) upsert(lines []string, app *models.Application) ([]string, bool) {
	encoded := s.codec.Encode(app)
	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, line := range lines {
		if s.codec.Split(line)[colID] == app.ID {
			if !replaced {
				out = append(out, encoded)
				replaced = true
			}
			continue
		}
		out = append(out, line)
	}
	if !replaced {
		out = append(out, encoded)
	}
	return out, !replaced
}

// mutate runs fn over the current lines under the store lock and atomically
// replaces the records file with the result.
func (s *Store) mutate(fn func(lines []string) ([]string, error)) error {
	lockPath := s.cfg.LockPath()
	lock, err := acquireLock(lockPath)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return apperrors.NewStoreLockedError(lockPath, err)
		}
		return apperrors.NewStoreIOFailedError("lock", err)
	}
	defer func() {
		if err := lock.unlock(); err != nil {
			s.logger.Warn("failed to release store lock", map[string]interface{}{"error": err.Error()})
		}
	}()

	lines, err := s.readLines()
	if err != nil {
		return err
	}
	updated, err := fn(lines)
	if err != nil {
		return err
	}
	if err := s.write(s.cfg.RecordsFile, updated); err != nil {
		s.logger.Error("failed to write records", map[string]interface{}{"error": err.Error()})
		return apperrors.NewStoreIOFailedError("write", err)
	}
	return nil
}

// readLines returns the non-blank lines of the records file. A missing file
// is an empty store.
func (s *Store) readLines() ([]string, error) {
	f, err := os.Open(s.cfg.RecordsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		s.logger.Error("failed to open records", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewStoreIOFailedError("read", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewStoreIOFailedError("read", err)
	}
	return lines, nil
}

// writeAtomic writes lines to a temp file in the same directory, syncs it
// and renames it over path.
func writeAtomic(path string, lines []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	success = true
	return nil
}

func (s *Store) observe(ctx context.Context, operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.StoreOperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	s.obs.RecordOperation(ctx, operation, elapsed, err)
}
