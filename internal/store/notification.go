package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/crate/internal/catalog"
)

// Auto-close delays per notification type. Errors stay until dismissed.
const (
	SuccessDuration = 3 * time.Second
	InfoDuration    = 4 * time.Second
	WarningDuration = 6 * time.Second
)

// Notify builds a notification with a fresh id and the default auto-close
// delay for its type.
func Notify(typ catalog.NotificationType, title, message string, at time.Time) catalog.Notification {
	n := catalog.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: at,
	}
	switch typ {
	case catalog.NotificationSuccess:
		n.AutoClose, n.Duration = true, SuccessDuration
	case catalog.NotificationInfo:
		n.AutoClose, n.Duration = true, InfoDuration
	case catalog.NotificationWarning:
		n.AutoClose, n.Duration = true, WarningDuration
	}
	return n
}
