// Package cases models marketplace cases: a unit of work between a client and
// a provider whose completion releases rewards and investment payouts.
package cases

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrCaseNotFound is returned when a case cannot be found.
	ErrCaseNotFound = errors.New("case not found")
	// ErrInvalidStatusTransition is returned when a status change is not allowed.
	ErrInvalidStatusTransition = errors.New("invalid case status transition")
	// ErrPayoutAlreadyProcessed is returned when completion rewards were already paid.
	ErrPayoutAlreadyProcessed = errors.New("case payout already processed")
	// ErrCaseClosed is returned when an operation requires an open case.
	ErrCaseClosed = errors.New("case is closed")
	// ErrNotParticipant is returned when the actor is neither client nor provider.
	ErrNotParticipant = errors.New("user is not a participant of the case")
	// ErrEmptyComment is returned for blank comments.
	ErrEmptyComment = errors.New("comment cannot be empty")
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statusRank = map[Status]int{
	StatusNew:        0,
	StatusInProgress: 1,
	StatusCompleted:  2,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a case may move from s to next.
// Transitions only move forward; cancellation is allowed from any open state.
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() || s.Terminal() || s == next {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Case is a marketplace engagement between a client and a provider.
type Case struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	ClientID          uuid.UUID  `json:"client_id"`
	ProviderID        uuid.UUID  `json:"provider_id"`
	Status            Status     `json:"status"`
	Sentiment         Sentiment  `json:"sentiment,omitempty"`
	PayoutProcessedAt *time.Time `json:"payout_processed_at,omitempty"`
	LastUpdate        time.Time  `json:"last_update"`
	CreatedAt         time.Time  `json:"created_at"`
}

// New creates a case in the new state.
func New(title string, clientID, providerID uuid.UUID) (*Case, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("title cannot be empty")
	}
	if clientID == uuid.Nil || providerID == uuid.Nil {
		return nil, errors.New("client and provider are required")
	}
	if clientID == providerID {
		return nil, errors.New("client and provider must differ")
	}
	now := time.Now().UTC()
	return &Case{
		ID:         uuid.New(),
		Title:      title,
		ClientID:   clientID,
		ProviderID: providerID,
		Status:     StatusNew,
		LastUpdate: now,
		CreatedAt:  now,
	}, nil
}

// IsParticipant reports whether userID is the client or the provider.
func (c *Case) IsParticipant(userID uuid.UUID) bool {
	return c.ClientID == userID || c.ProviderID == userID
}

// Transition moves the case to next.
func (c *Case) Transition(next Status, at time.Time) error {
	if !c.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, c.Status, next)
	}
	c.Status = next
	c.LastUpdate = at
	return nil
}

// MarkPaidOut records that rewards and payouts were applied.
func (c *Case) MarkPaidOut(sentiment Sentiment, at time.Time) error {
	if c.PayoutProcessedAt != nil {
		return ErrPayoutAlreadyProcessed
	}
	c.Sentiment = sentiment
	c.PayoutProcessedAt = &at
	return nil
}

// Comment is a message in a case thread.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	CaseID    uuid.UUID `json:"case_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment validates and builds a comment.
func NewComment(caseID, authorID uuid.UUID, body string) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	return &Comment{
		ID:        uuid.New(),
		CaseID:    caseID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}, nil
}
