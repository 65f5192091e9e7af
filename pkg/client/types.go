package client

// Wire types shared with the proxy adapter.

// HeaderCorrelationID carries the per-request tracing token.
const HeaderCorrelationID = "X-Correlation-ID"

// Upstream paths, relative to the base URL.
const (
	PathSessions        = "/v1/voice/sessions"
	PathSessionRespond  = "/v1/voice/sessions/%s/respond"
	PathFallbackRespond = "/v1/respond"
)

// SessionResponse is the body returned by session creation.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// ClientInfo describes the calling client.
type ClientInfo struct {
	Platform string `json:"platform"`
	Locale   string `json:"locale"`
}

// RespondRequest is the body of a respond call.
type RespondRequest struct {
	InputText string     `json:"input_text"`
	Client    ClientInfo `json:"client"`
}

// Policy carries the moderation flags of a reply.
type Policy struct {
	Flags []string `json:"flags"`
}

// RespondResponse is the body returned by a respond call.
type RespondResponse struct {
	AssistantMessageID string `json:"assistant_message_id"`
	Text               string `json:"text"`
	Policy             Policy `json:"policy"`
}
