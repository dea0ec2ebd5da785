package provider

import (
	"context"
	"sync/atomic"

	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/provider"
)

// StaticSentimentClassifier always returns the same label, or Err when set.
// It backs local development and tests.
type StaticSentimentClassifier struct {
	Sentiment cases.Sentiment
	Err       error
	calls     atomic.Int64
}

// NewStaticSentimentClassifier returns a classifier that answers label.
func NewStaticSentimentClassifier(label string) *StaticSentimentClassifier {
	return &StaticSentimentClassifier{Sentiment: cases.ParseSentiment(label)}
}

func (s *StaticSentimentClassifier) Name() string { return "static" }

// Calls reports how many times Classify ran.
func (s *StaticSentimentClassifier) Calls() int64 { return s.calls.Load() }

func (s *StaticSentimentClassifier) Classify(context.Context, []*cases.Comment) (cases.Sentiment, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Sentiment, nil
}

var _ provider.SentimentClassifier = (*StaticSentimentClassifier)(nil)
