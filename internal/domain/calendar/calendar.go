package calendar

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// UndoWindow is how long after a sync it can still be reverted
const UndoWindow = 5 * time.Minute

// Calendar errors
var (
	ErrNotConnected        = shared.NewDomainError("GOOGLE_NOT_CONNECTED", "Google Calendar is not connected")
	ErrReconnectRequired   = shared.NewDomainError("GOOGLE_RECONNECT_REQUIRED", "Please reconnect Google Calendar.")
	ErrAuthFailed          = shared.NewDomainError("GOOGLE_AUTH_FAILED", "Failed to authenticate with Google Calendar")
	ErrInvalidState        = shared.NewDomainError("GOOGLE_INVALID_STATE", "Authorization request expired or is invalid")
	ErrSyncCancelled       = shared.NewDomainError("SYNC_CANCELLED", "Sync cancelled by user")
	ErrNoRecentSync        = shared.NewDomainError("NO_RECENT_SYNC", "No recent sync found to undo")
	ErrSyncInProgress      = shared.NewDomainError("SYNC_IN_PROGRESS", "A sync is already running")
	ErrCalendarUnavailable = shared.NewDomainError("GOOGLE_UNAVAILABLE", "Google Calendar request failed")
	ErrEventNotFound       = shared.NewDomainError("GOOGLE_EVENT_NOT_FOUND", "Calendar event no longer exists")
)

// Token is a user's stored OAuth credential. Token strings are kept
// encrypted at rest by the repository.
type Token struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}

// SyncStatus is the outcome of a sync run
type SyncStatus string

const (
	SyncCompleted SyncStatus = "COMPLETED"
	SyncFailed    SyncStatus = "FAILED"
	SyncCancelled SyncStatus = "CANCELLED"
)

// SyncHistory records one sync run and the events it created
type SyncHistory struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	SyncedAt time.Time
	Status   SyncStatus
	EventIDs []string
	Error    string
}

// NewSyncHistory records a finished run
func NewSyncHistory(userID uuid.UUID, status SyncStatus, eventIDs []string, now time.Time) *SyncHistory {
	if eventIDs == nil {
		eventIDs = []string{}
	}
	return &SyncHistory{
		ID:       uuid.New(),
		UserID:   userID,
		SyncedAt: now,
		Status:   status,
		EventIDs: eventIDs,
	}
}

// CanUndo reports whether the run may still be reverted at now
func (h *SyncHistory) CanUndo(now time.Time) bool {
	return h.Status == SyncCompleted && now.Sub(h.SyncedAt) <= UndoWindow
}

// MarkCancelled records that the run was undone
func (h *SyncHistory) MarkCancelled() {
	h.Status = SyncCancelled
}
