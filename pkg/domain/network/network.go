// Package network models directional connections between users.
package network

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSelfConnection is returned when a user tries to connect to themselves.
	ErrSelfConnection = errors.New("cannot connect to yourself")
	// ErrAlreadyConnected is returned when the owner already has the contact.
	ErrAlreadyConnected = errors.New("already connected")
)

// Connection is one direction of a mutual link. A mutual connection is
// stored as two rows, owner->contact and contact->owner.
type Connection struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	ContactID uuid.UUID `json:"contact_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPair returns both directions of a connection between owner and contact.
func NewPair(ownerID, contactID uuid.UUID, at time.Time) (forward, reverse *Connection, err error) {
	if ownerID == contactID {
		return nil, nil, ErrSelfConnection
	}
	forward = &Connection{ID: uuid.New(), OwnerID: ownerID, ContactID: contactID, CreatedAt: at}
	reverse = &Connection{ID: uuid.New(), OwnerID: contactID, ContactID: ownerID, CreatedAt: at}
	return forward, reverse, nil
}
