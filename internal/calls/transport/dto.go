package transport

// WebhookRequest is the provider's call-lifecycle event envelope.
type WebhookRequest struct {
	Event string      `json:"event"`
	Call  WebhookCall `json:"call"`
}

// WebhookCall is the call payload carried by every lifecycle event.
type WebhookCall struct {
	CallID              string        `json:"call_id"`
	AgentID             string        `json:"agent_id"`
	Transcript          string        `json:"transcript"`
	RecordingURL        string        `json:"recording_url"`
	DisconnectionReason string        `json:"disconnection_reason"`
	CallAnalysis        *CallAnalysis `json:"call_analysis,omitempty"`
}

// CallAnalysis is the post-call analysis attached to call_analyzed events.
type CallAnalysis struct {
	InVoicemail    bool   `json:"in_voicemail"`
	CallSummary    string `json:"call_summary"`
	UserSentiment  string `json:"user_sentiment"`
	AgentSentiment string `json:"agent_sentiment"`
}

// CallEventResponse exposes one stored call event.
type CallEventResponse struct {
	CallID              string `json:"callId"`
	Transcript          string `json:"transcript,omitempty"`
	RecordingURL        string `json:"recordingUrl,omitempty"`
	DisconnectionReason string `json:"disconnectionReason,omitempty"`
	AnalyzedTranscript  string `json:"analyzedTranscript,omitempty"`
	CallSummary         string `json:"callSummary,omitempty"`
	UserSentiment       string `json:"userSentiment,omitempty"`
	AgentSentiment      string `json:"agentSentiment,omitempty"`
	CreatedAt           string `json:"createdAt"`
	UpdatedAt           string `json:"updatedAt"`
}
