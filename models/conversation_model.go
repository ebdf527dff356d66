package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is an unordered pair of participants. The pair is stored
// sorted so that (a,b) and (b,a) map onto the same unique row.
type Conversation struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ParticipantLowID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair"`
	ParticipantHighID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair"`
	LastMessageID     *uuid.UUID `gorm:"type:uuid"`
	LastMessageAt     *time.Time `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	LastMessage *Message `gorm:"foreignkey:LastMessageID"`
}

// ParticipantPair orders two ids so the smaller one comes first.
func ParticipantPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantLowID == userID || c.ParticipantHighID == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.ParticipantLowID == userID {
		return c.ParticipantHighID
	}
	return c.ParticipantLowID
}
