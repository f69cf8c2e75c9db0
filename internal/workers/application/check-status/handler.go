// internal/workers/application/check-status/handler.go
package checkstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"loan-desk/internal/common/logger"
	"loan-desk/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "check-status"
)

var (
	ErrInvalidCNIC = errors.New("INVALID_CNIC")
)

// ApplicationFinder looks applications up by the applicant's CNIC.
type ApplicationFinder interface {
	FindByCNIC(ctx context.Context, cnic string) ([]*models.Application, error)
}

type Handler struct {
	config *Config
	store  ApplicationFinder
	redis  *redis.Client
	logger logger.Logger
}

// NewHandler builds the status check. rdb may be nil, in which case every
// lookup reads the store.
func NewHandler(config *Config, store ApplicationFinder, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := models.ValidateCNIC("cnic", input.CNIC); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCNIC, err)
	}

	if out, ok := h.fromCache(ctx, input.CNIC); ok {
		return out, nil
	}

	apps, err := h.store.FindByCNIC(ctx, input.CNIC)
	if err != nil {
		return nil, fmt.Errorf("find applications: %w", err)
	}

	out := &Output{CNIC: input.CNIC, Applications: make([]ApplicationSummary, 0, len(apps))}
	for _, app := range apps {
		out.Applications = append(out.Applications, summarize(app))
	}
	h.toCache(ctx, out)

	h.logger.Info("status checked", map[string]interface{}{
		"applications": len(out.Applications),
	})
	return out, nil
}

// Invalidate drops the cached answer for cnic.
func (h *Handler) Invalidate(ctx context.Context, cnic string) error {
	if !h.cacheEnabled() || cnic == "" {
		return nil
	}
	if err := h.redis.Del(ctx, h.cacheKey(cnic)).Err(); err != nil {
		h.logger.Warn("status cache invalidation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (h *Handler) fromCache(ctx context.Context, cnic string) (*Output, bool) {
	if !h.cacheEnabled() {
		return nil, false
	}
	val, err := h.redis.Get(ctx, h.cacheKey(cnic)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("status cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}
	var out Output
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		h.logger.Warn("status cache entry unreadable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	out.Cached = true
	h.logger.Debug("status cache hit", nil)
	return &out, true
}

func (h *Handler) toCache(ctx context.Context, out *Output) {
	if !h.cacheEnabled() {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, h.cacheKey(out.CNIC), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("status cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) cacheEnabled() bool {
	return h.config.CacheEnabled && h.redis != nil
}

func (h *Handler) cacheKey(cnic string) string {
	return h.config.KeyPrefix + cnic
}

func summarize(app *models.Application) ApplicationSummary {
	return ApplicationSummary{
		ApplicationID:   app.ID,
		Status:          app.Status,
		SubmissionDate:  app.SubmissionDate,
		LoanType:        app.LoanType,
		LoanCategory:    app.LoanCategory,
		LoanAmount:      app.LoanAmount,
		NextSection:     app.NextIncompleteSection(),
		RejectionReason: app.RejectionReason,
	}
}
