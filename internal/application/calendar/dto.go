package calendar

import (
	"time"

	"github.com/google/uuid"
)

// AuthURLResponse carries the consent page the client should open
type AuthURLResponse struct {
	URL string `json:"url"`
}

// StatusResponse reports whether the caller has a stored calendar grant
type StatusResponse struct {
	Connected bool `json:"connected"`
}

// CallbackRequest is the query string Google redirects back with
type CallbackRequest struct {
	Code  string `form:"code"`
	State string `form:"state" binding:"required"`
	Error string `form:"error"`
}

// SyncResponse summarizes a sync run
type SyncResponse struct {
	HistoryID uuid.UUID `json:"history_id"`
	SyncedAt  time.Time `json:"synced_at"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Imported  int       `json:"imported"`
	EventIDs  []string  `json:"event_ids"`
}

// UndoResponse summarizes an undone sync
type UndoResponse struct {
	HistoryID     uuid.UUID `json:"history_id"`
	RemovedEvents int       `json:"removed_events"`
}
