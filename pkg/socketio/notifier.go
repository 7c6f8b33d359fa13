package socketio

// Event names emitted to clients.
const (
	EventCourseUnlocked   = "courseUnlocked"
	EventProgressUpdated  = "progressUpdated"
	EventCourseCompleted  = "courseCompleted"
	EventReactionsUpdated = "reactionsUpdated"
)

// Notifier is the fire-and-forget realtime sink used by request handlers.
type Notifier interface {
	NotifyUser(userID uint, event string, payload any)
	BroadcastForumPost(postID uint, event string, payload any)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) NotifyUser(uint, string, any)         {}
func (Nop) BroadcastForumPost(uint, string, any) {}

var _ Notifier = (*Server)(nil)
