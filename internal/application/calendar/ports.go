package calendar

import (
	"context"
	"time"

	"github.com/taskflow/backend/internal/domain/calendar"
)

// EventInput is the payload written to the external calendar for a task
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Event is an event read from the external calendar
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	AllDay      bool
}

// Client is a calendar session bound to one user's token. Methods return
// calendar.ErrEventNotFound for missing events and
// calendar.ErrReconnectRequired when the grant has been revoked.
type Client interface {
	InsertEvent(ctx context.Context, calendarID string, ev EventInput) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev EventInput) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListEvents(ctx context.Context, calendarID string, since time.Time) ([]Event, error)

	// Token returns the current token and whether it was refreshed since
	// the client was created
	Token() (*calendar.Token, bool, error)
}

// Provider performs the OAuth flow and opens calendar sessions
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*calendar.Token, error)
	Revoke(ctx context.Context, token *calendar.Token) error
	NewClient(ctx context.Context, token *calendar.Token) (Client, error)
}
