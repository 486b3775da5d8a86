package domain

import "time"

// TransitionEvent событие о зафиксированном переходе для Notification Dispatcher
type TransitionEvent struct {
	EventID    string     `json:"eventId"`
	EntityID   int64      `json:"entityId"`
	EntityType EntityType `json:"entityType"`
	OldState   string     `json:"oldState"`
	NewState   string     `json:"newState"`
	ActorRole  ActorRole  `json:"actorRole"`
	Timestamp  time.Time  `json:"timestamp"`
}
