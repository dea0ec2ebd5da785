package provider

import (
	"context"

	"github.com/amirasaad/marketledger/pkg/domain/cases"
)

// SentimentClassifier labels the collaboration quality of a case thread.
// Implementations call out to an external model and must not be invoked
// while a database transaction is open.
type SentimentClassifier interface {
	Classify(ctx context.Context, comments []*cases.Comment) (cases.Sentiment, error)
	Name() string
}
