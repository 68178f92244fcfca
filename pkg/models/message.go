package models

// StoredMessage is a single chat entry as it lives in the backing file.
// Field names are on-disk contract; out-of-band tooling reads the file
// directly, so they must not change.
type StoredMessage struct {
	// SentTime doubles as the message id within its thread. Clients supply
	// it (Unix milliseconds); deletion by id removes the first match.
	SentTime int64  `json:"sent_time"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

// ChatMessage is the live-protocol representation of a message. The relay
// emits camelCase fields on the wire while the file keeps snake_case; both
// namings are contract surface and are deliberately not unified.
type ChatMessage struct {
	ID      int64  `json:"id"`
	User    string `json:"user"`
	Message string `json:"message"`
	Date    int64  `json:"date"`
	Type    string `json:"type"`
}
