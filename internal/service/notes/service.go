package notes

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/pkg/logger"
	"github.com/glabspro/bee/pkg/metrics"
)

var (
	ErrEmptyText        = errors.New("note text is empty")
	ErrAnalyzerDisabled = errors.New("text analysis is not configured")
)

// MaxTextLength bounds, in bytes, what is sent to the analyzer. Longer text is
// cut at the last rune boundary within the limit.
const MaxTextLength = 20000

type Suggestion struct {
	Suggestions         []string `json:"suggestions"`
	RecommendedCategory string   `json:"recommendedCategory"`
}

// Analyzer is the text analysis collaborator. Calls are made once; callers
// never retry.
type Analyzer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Suggest(ctx context.Context, text string) (*Suggestion, error)
}

// DisabledAnalyzer fails every call; used when no API key is configured.
type DisabledAnalyzer struct{}

func (DisabledAnalyzer) Summarize(context.Context, string) (string, error) {
	return "", ErrAnalyzerDisabled
}

func (DisabledAnalyzer) Suggest(context.Context, string) (*Suggestion, error) {
	return nil, ErrAnalyzerDisabled
}

type Service struct {
	analyzer Analyzer
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewService(analyzer Analyzer, m *metrics.Metrics, log *logger.Logger) *Service {
	if analyzer == nil {
		analyzer = DisabledAnalyzer{}
	}
	return &Service{analyzer: analyzer, metrics: m, logger: log}
}

// Summarize returns the analyzer's summary. An analyzer failure is returned as
// a notice, not an error.
func (s *Service) Summarize(ctx context.Context, text string) (string, *model.Notice, error) {
	text, err := clean(text)
	if err != nil {
		return "", nil, err
	}

	start := time.Now()
	summary, err := s.analyzer.Summarize(ctx, text)
	s.observe("summarize", start, err)
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "note summary failed")
		return "", model.NewNotice("summarize note", err), nil
	}
	return strings.TrimSpace(summary), nil, nil
}

// Suggest returns nil when the analyzer fails.
func (s *Service) Suggest(ctx context.Context, text string) (*Suggestion, error) {
	text, err := clean(text)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	suggestion, err := s.analyzer.Suggest(ctx, text)
	s.observe("suggest", start, err)
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "note suggestions failed")
		return nil, nil
	}
	return suggestion, nil
}

func clean(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if len(text) > MaxTextLength {
		n := MaxTextLength
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}
	return text, nil
}

func (s *Service) observe(op string, start time.Time, err error) {
	s.metrics.AnalyzerCalls.WithLabelValues(op, metrics.Status(err)).Inc()
	s.metrics.AnalyzerLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
