package models

// Job is a unit of queued inference work. It lives only on the queue: created
// by the ingress facade, consumed exactly once by the single worker, and
// discarded after processing regardless of outcome.
type Job struct {
	ID     string `json:"id,omitempty"` // ULID, assigned at publish
	UserID int64  `json:"user_id"`
	Prompt string `json:"prompt"`
}
