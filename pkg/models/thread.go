package models

// Thread holds all messages exchanged between one user and the admin party.
type Thread struct {
	// ID is assigned when the thread is created: one more than the thread
	// count at creation time, rendered as a string.
	ID string `json:"id"`
	// UserID is the numeric identifier of the user side of the thread.
	// At most one thread exists per user id.
	UserID int `json:"user_id"`
	// Messages are ordered oldest first; insertion order is chronological.
	Messages []StoredMessage `json:"messages"`
}

// StoreFile is the top-level shape of the backing JSON file.
type StoreFile struct {
	MessageToAdmin []Thread `json:"message_to_admin"`
}
