package audit

import "time"

// Action names a registration outcome.
type Action string

const (
	ActionRegistered Action = "registration_completed"
	ActionRejected   Action = "registration_rejected"
	ActionInvalid    Action = "registration_invalid"
	ActionFailed     Action = "registration_failed"
	ActionOrphaned   Action = "registration_orphaned"
)

// Event is emitted from the registration service for every outcome. It is
// transport-agnostic so sinks can fan out.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	Variant    string    `json:"variant"`
	BaseID     string    `json:"base_id,omitempty"`
	DetailID   string    `json:"detail_id,omitempty"`
	University string    `json:"university,omitempty"`
	Award      string    `json:"award,omitempty"`
	Reason     string    `json:"reason,omitempty"`

	// Request enrichment, filled by the publisher.
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Mobile    bool   `json:"mobile,omitempty"`
	Bot       bool   `json:"bot,omitempty"`
}
