package models

import "time"

// User is the lightweight user reference this subsystem reads. Account
// management lives elsewhere; the pipeline only needs identity and a display
// name for the persona prompt.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SmokingInfo is the cessation metadata attached to a user. QuitStartDate may
// be nil for users who have not registered their quit info yet.
type SmokingInfo struct {
	UserID        int64      `json:"user_id"`
	QuitStartDate *time.Time `json:"quit_start_date,omitempty"`
	QuitGoal      string     `json:"quit_goal,omitempty"`
	DailyCigs     int        `json:"daily_cigs,omitempty"`
}

// ChatContext is the per-request composition handed to the prompt builder.
// Never persisted. SmokingInfo is nil when the user has no cessation record.
type ChatContext struct {
	User        *User
	SmokingInfo *SmokingInfo
}
