// internal/workers/conversation/match-utterance/handler.go
package matchutterance

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "loan-desk/internal/common/errors"
	"loan-desk/internal/common/logger"
)

const (
	TaskType = "match-utterance"

	separator = "#"
)

type Handler struct {
	config     *Config
	logger     logger.Logger
	utterances []Utterance
	exact      map[string]string
}

// NewHandler loads the utterance file. A missing file leaves only the
// fallback response.
func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	h := &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		exact:  make(map[string]string),
	}
	if config.UtterancesFile == "" {
		return h, nil
	}

	f, err := os.Open(config.UtterancesFile)
	if err != nil {
		if os.IsNotExist(err) {
			h.logger.Warn("utterances file not found, using fallback only", map[string]interface{}{
				"file": config.UtterancesFile,
			})
			return h, nil
		}
		return nil, apperrors.NewCatalogLoadFailedError(config.UtterancesFile, err)
	}
	defer f.Close()

	if err := h.load(f); err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(config.UtterancesFile, err)
	}
	h.logger.Debug("utterances loaded", map[string]interface{}{
		"count": len(h.utterances),
	})
	return h, nil
}

func (h *Handler) load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pattern, response, ok := strings.Cut(line, separator)
		pattern = normalize(pattern)
		response = strings.TrimSpace(response)
		if !ok || pattern == "" || response == "" {
			h.logger.Warn("utterance line skipped", map[string]interface{}{
				"line": lineNo,
			})
			continue
		}
		if _, dup := h.exact[pattern]; dup {
			continue
		}
		h.exact[pattern] = response
		h.utterances = append(h.utterances, Utterance{Pattern: pattern, Response: response})
	}
	return scanner.Err()
}

// Match answers text with the response of an exactly matching pattern, else
// of the longest pattern contained in text, else the fallback.
func (h *Handler) Match(text string) *Output {
	text = normalize(text)
	if text == "" {
		return &Output{Response: h.config.FallbackResponse}
	}
	if resp, ok := h.exact[text]; ok {
		return &Output{Response: resp, Pattern: text, Matched: true}
	}

	var best *Utterance
	for i := range h.utterances {
		u := &h.utterances[i]
		if !strings.Contains(text, u.Pattern) {
			continue
		}
		if best == nil || len(u.Pattern) > len(best.Pattern) {
			best = u
		}
	}
	if best == nil {
		return &Output{Response: h.config.FallbackResponse}
	}
	return &Output{Response: best.Response, Pattern: best.Pattern, Matched: true}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, fmt.Errorf("input is required")
	}
	out := h.Match(input.Text)
	h.logger.Debug("utterance matched", map[string]interface{}{
		"matched": out.Matched,
		"pattern": out.Pattern,
	})
	return out, nil
}

// Len returns the number of loaded patterns.
func (h *Handler) Len() int {
	return len(h.utterances)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
