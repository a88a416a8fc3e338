package domain

import "time"

// Message belongs to one event's chat thread, ordered by creation time.
// Private messages are visible only to the sender and the recipient.
type Message struct {
	ID                 string
	EventID            string
	SenderID           string
	Content            string
	IsPrivate          bool
	PrivateRecipientID *string
	CreatedAt          time.Time
}

// VisibleTo reports whether the given profile may read the message.
func (m *Message) VisibleTo(profileID string, role UserRole) bool {
	if !m.IsPrivate {
		return true
	}
	if role == RoleAdmin {
		return true
	}
	if m.SenderID == profileID {
		return true
	}
	return m.PrivateRecipientID != nil && *m.PrivateRecipientID == profileID
}
