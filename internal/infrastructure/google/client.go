package google

import (
	"context"
	"time"

	"github.com/google/uuid"
	calendarapp "github.com/taskflow/backend/internal/application/calendar"
	"github.com/taskflow/backend/internal/domain/calendar"
	"golang.org/x/oauth2"
	calendarv3 "google.golang.org/api/calendar/v3"
)

// client is a Calendar v3 session for one user
type client struct {
	svc      *calendarv3.Service
	source   oauth2.TokenSource
	original *oauth2.Token
	userID   uuid.UUID
}

func (c *client) InsertEvent(ctx context.Context, calendarID string, ev calendarapp.EventInput) (string, error) {
	created, err := c.svc.Events.Insert(calendarID, toAPIEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", translateError(err)
	}
	return created.Id, nil
}

func (c *client) UpdateEvent(ctx context.Context, calendarID, eventID string, ev calendarapp.EventInput) error {
	_, err := c.svc.Events.Update(calendarID, eventID, toAPIEvent(ev)).Context(ctx).Do()
	return translateError(err)
}

func (c *client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return translateError(c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do())
}

// ListEvents returns single (expanded) events starting at or after since
func (c *client) ListEvents(ctx context.Context, calendarID string, since time.Time) ([]calendarapp.Event, error) {
	var events []calendarapp.Event
	err := c.svc.Events.List(calendarID).
		TimeMin(since.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false).
		Pages(ctx, func(page *calendarv3.Events) error {
			for _, item := range page.Items {
				events = append(events, fromAPIEvent(item))
			}
			return nil
		})
	if err != nil {
		return nil, translateError(err)
	}
	return events, nil
}

func (c *client) Token() (*calendar.Token, bool, error) {
	tok, err := c.source.Token()
	if err != nil {
		return nil, false, translateError(err)
	}
	result := fromOAuthToken(tok)
	result.UserID = c.userID
	if result.RefreshToken == "" {
		result.RefreshToken = c.original.RefreshToken
	}
	return result, tok.AccessToken != c.original.AccessToken, nil
}

func toAPIEvent(ev calendarapp.EventInput) *calendarv3.Event {
	return &calendarv3.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &calendarv3.EventDateTime{DateTime: ev.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &calendarv3.EventDateTime{DateTime: ev.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}
}

func fromAPIEvent(item *calendarv3.Event) calendarapp.Event {
	ev := calendarapp.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
	}
	if item.Start == nil {
		return ev
	}
	if item.Start.DateTime == "" {
		ev.AllDay = true
		if d, err := time.Parse("2006-01-02", item.Start.Date); err == nil {
			ev.Start = d.UTC()
		}
		return ev
	}
	if t, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
		ev.Start = t.UTC()
	}
	return ev
}
