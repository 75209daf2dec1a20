package dto

// Socket event names pushed to per-user rooms.
const (
	EventMessageNew        = "message:new"
	EventNotificationNew   = "notification:new"
	EventUnreadCountUpdate = "unreadCount:update"
)

// SocketEvent is the wire frame written to websocket clients.
type SocketEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// MessageNewPayload accompanies message:new.
type MessageNewPayload struct {
	ConversationID uint            `json:"conversation_id"`
	Message        MessageResponse `json:"message"`
}

// NotificationNewPayload accompanies notification:new.
type NotificationNewPayload struct {
	Notification NotificationResponse `json:"notification"`
}

// UnreadCountUpdatePayload accompanies unreadCount:update.
type UnreadCountUpdatePayload struct {
	Count int64 `json:"count"`
}

// NewMessageNewEvent wraps a freshly persisted message for broadcast.
func NewMessageNewEvent(message MessageResponse) SocketEvent {
	return SocketEvent{
		Event:   EventMessageNew,
		Payload: MessageNewPayload{ConversationID: message.ConversationID, Message: message},
	}
}

// NewNotificationNewEvent wraps a persisted notification for broadcast.
func NewNotificationNewEvent(notification NotificationResponse) SocketEvent {
	return SocketEvent{
		Event:   EventNotificationNew,
		Payload: NotificationNewPayload{Notification: notification},
	}
}

// NewUnreadCountUpdateEvent wraps the owner's current unread badge count.
func NewUnreadCountUpdateEvent(count int64) SocketEvent {
	return SocketEvent{
		Event:   EventUnreadCountUpdate,
		Payload: UnreadCountUpdatePayload{Count: count},
	}
}
