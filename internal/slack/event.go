package slack

// Envelope is the outer payload of an Events API request.
type Envelope struct {
	Token     string        `json:"token"`
	Type      string        `json:"type"`
	Challenge string        `json:"challenge"`
	Event     *MessageEvent `json:"event"`
}

// Envelope types sent by the Events API.
const (
	TypeURLVerification = "url_verification"
	TypeEventCallback   = "event_callback"
)

// MessageEvent is the inner message event. Only plain user messages are
// processed; bot messages and subtyped messages (edits, joins, file shares)
// are skipped.
type MessageEvent struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	BotID    string `json:"bot_id"`
	Text     string `json:"text"`
	User     string `json:"user"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

// IsUserMessage reports whether the event is a plain message from a human.
func (e *MessageEvent) IsUserMessage() bool {
	return e != nil && e.Type == "message" && e.Subtype == "" && e.BotID == ""
}
