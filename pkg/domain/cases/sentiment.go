package cases

import "strings"

// Sentiment is the collaboration quality label assigned to a case thread.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positivo"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negativo"
)

// ParseSentiment normalizes a classifier label. Unknown labels map to
// SentimentNegative so they never earn a reward.
func ParseSentiment(label string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positivo", "positive":
		return SentimentPositive
	case "neutral", "neutro":
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// RewardSchedule maps sentiments to the credits granted to each participant.
type RewardSchedule struct {
	Positive int64
	Neutral  int64
}

// DefaultRewardSchedule pays 10 for positive and 5 for neutral threads.
func DefaultRewardSchedule() RewardSchedule {
	return RewardSchedule{Positive: 10, Neutral: 5}
}

// For returns the per-participant reward for s.
func (r RewardSchedule) For(s Sentiment) int64 {
	switch s {
	case SentimentPositive:
		return r.Positive
	case SentimentNeutral:
		return r.Neutral
	default:
		return 0
	}
}
