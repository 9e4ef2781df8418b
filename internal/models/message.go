package models

// Message is the unit the relay logs and fans out. Timestamp is
// epoch milliseconds, assigned by the server on receipt.
type Message struct {
	FromID    string `json:"fromId" validate:"required"`
	ToID      string `json:"toId" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Timestamp int64  `json:"timestamp"`
}

// Involves reports whether userID is a participant of the message.
func (m Message) Involves(userID string) bool {
	return m.FromID == userID || m.ToID == userID
}
