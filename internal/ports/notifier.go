package ports

import "context"

// NotifierPort delivers persistent notifications to participants, so turn
// assignments reach players who are offline when the turn comes up.
type NotifierPort interface {
	// Send delivers one notification to userID. content must be
	// JSON-serializable; code identifies the notification type to clients.
	Send(ctx context.Context, userID, subject string, content map[string]interface{}, code int) error
}
