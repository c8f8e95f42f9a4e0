package notification

import "github.com/google/uuid"

// Push destinations
const (
	// UserQueue is each user's private notification channel
	UserQueue = "/user/queue/notifications"
	// TaskUpdatesPrefix prefixes the per-task live update topic
	TaskUpdatesPrefix = "/topic/task-updates/"
)

// TaskUpdatesTopic returns the live update topic of a task
func TaskUpdatesTopic(taskID uuid.UUID) string {
	return TaskUpdatesPrefix + taskID.String()
}

// Pusher delivers messages to connected clients. Delivery is best effort:
// users without an open connection simply miss the push.
type Pusher interface {
	// PushToUser sends payload on destination to every connection of userID
	PushToUser(userID uuid.UUID, destination string, payload any)
	// TopicSubscribers returns the users with a connection subscribed to topic
	TopicSubscribers(topic string) []uuid.UUID
	// PushToTopic sends payload to userID's connections subscribed to topic
	PushToTopic(topic string, userID uuid.UUID, payload any)
}
