package hub

import "encoding/json"

// Live-protocol event names. Inbound: join, sendMessage, getMessages,
// deleteMessage. Outbound: userList, message, messages, error. Names and
// payload shapes are stable contract with the storefront UI.
const (
	evJoin          = "join"
	evSendMessage   = "sendMessage"
	evGetMessages   = "getMessages"
	evDeleteMessage = "deleteMessage"

	evUserList = "userList"
	evMessage  = "message"
	evMessages = "messages"
	evError    = "error"
)

// envelope frames every event in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// sendPayload is the inbound sendMessage shape.
type sendPayload struct {
	User    string     `json:"user"`
	Message string     `json:"message"`
	Date    int64      `json:"date"`
	Type    string     `json:"type"`
	To      flexString `json:"to"`
}

// deletePayload is the inbound deleteMessage shape. id is the sent_time
// of the message to remove.
type deletePayload struct {
	ID int64      `json:"id"`
	To flexString `json:"to"`
}

// flexString decodes either a JSON string or a bare number; the storefront
// UI is not consistent about which it sends for user ids.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

// displayName derives the user label the UI shows for a thread party.
func displayName(userID string) string {
	if userID == "1" {
		return "admin"
	}
	return "user_" + userID
}
