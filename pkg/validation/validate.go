package validation

import "strconv"

// MissingFields is the user-facing validation error for a send with no
// message body or no recipient. The storefront UI displays it verbatim,
// so the text is part of the protocol contract.
const MissingFields = "Thiếu nội dung tin nhắn hoặc người nhận"

// SendVerdict is the outcome of validating an inbound sendMessage payload.
// Exactly one of three states holds: deliverable (OK), rejected with a
// user-facing error (UserError non-empty), or silently dropped (neither).
type SendVerdict struct {
	OK        bool
	UserID    int
	UserError string
}

// CheckSend centralizes the sendMessage rules: both the message body and
// the recipient are required, and the recipient must be a decimal user id.
// A missing field earns the user-facing error; a non-numeric recipient is
// dropped without a reply.
func CheckSend(message, to string) SendVerdict {
	if message == "" || to == "" {
		return SendVerdict{UserError: MissingFields}
	}
	uid, err := strconv.Atoi(to)
	if err != nil {
		return SendVerdict{}
	}
	return SendVerdict{OK: true, UserID: uid}
}

// UserID parses a thread/recipient id. Used by the events that address a
// thread without a message body (getMessages, deleteMessage), which treat
// an unparsable id as a silent no-op.
func UserID(to string) (int, bool) {
	uid, err := strconv.Atoi(to)
	if err != nil {
		return 0, false
	}
	return uid, true
}
