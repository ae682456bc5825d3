package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glabspro/bee/pkg/logger"
	"github.com/glabspro/bee/pkg/metrics"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *mockAnalyzer) Suggest(ctx context.Context, text string) (*Suggestion, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Suggestion), args.Error(1)
}

func newTestService(a Analyzer) *Service {
	return NewService(a, metrics.New("test"), logger.Nop())
}

func TestSummarize(t *testing.T) {
	a := new(mockAnalyzer)
	a.On("Summarize", mock.Anything, "knee pain after running").Return("  Knee pain.\n", nil).Once()
	svc := newTestService(a)

	summary, notice, err := svc.Summarize(context.Background(), "  knee pain after running ")
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Equal(t, "Knee pain.", summary)
	a.AssertExpectations(t)
}

func TestSummarize_TruncatesOnRuneBoundary(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantLen int
	}{
		{"multibyte rune straddles the limit", strings.Repeat("a", MaxTextLength-1) + "ñ", MaxTextLength - 1},
		{"ascii over the limit", strings.Repeat("a", MaxTextLength+10), MaxTextLength},
		{"exactly at the limit", strings.Repeat("a", MaxTextLength-2) + "ñ", MaxTextLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent string
			a := new(mockAnalyzer)
			a.On("Summarize", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { sent = args.String(1) }).
				Return("ok", nil).Once()
			svc := newTestService(a)

			_, notice, err := svc.Summarize(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Nil(t, notice)
			assert.True(t, utf8.ValidString(sent))
			assert.Len(t, sent, tt.wantLen)
		})
	}
}

func TestSummarize_FailureIsNotice(t *testing.T) {
	a := new(mockAnalyzer)
	a.On("Summarize", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()
	svc := newTestService(a)

	summary, notice, err := svc.Summarize(context.Background(), "note")
	require.NoError(t, err)
	assert.Empty(t, summary)
	require.NotNil(t, notice)
	assert.Contains(t, notice.Message, "quota exceeded")
	a.AssertNumberOfCalls(t, "Summarize", 1)
}

func TestSuggest(t *testing.T) {
	want := &Suggestion{Suggestions: []string{"Ice twice a day"}, RecommendedCategory: "physiotherapy"}
	a := new(mockAnalyzer)
	a.On("Suggest", mock.Anything, "note").Return(want, nil)
	svc := newTestService(a)

	got, err := svc.Suggest(context.Background(), "note")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSuggest_FailureIsNil(t *testing.T) {
	a := new(mockAnalyzer)
	a.On("Suggest", mock.Anything, mock.Anything).Return(nil, errors.New("bad gateway")).Once()
	svc := newTestService(a)

	got, err := svc.Suggest(context.Background(), "note")
	assert.NoError(t, err)
	assert.Nil(t, got)
	a.AssertNumberOfCalls(t, "Suggest", 1)
}

func TestEmptyText(t *testing.T) {
	svc := newTestService(new(mockAnalyzer))

	_, _, err := svc.Summarize(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = svc.Suggest(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestDisabledAnalyzer(t *testing.T) {
	svc := newTestService(nil)

	_, notice, err := svc.Summarize(context.Background(), "note")
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, ErrAnalyzerDisabled.Error(), notice.Message)

	got, err := svc.Suggest(context.Background(), "note")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
