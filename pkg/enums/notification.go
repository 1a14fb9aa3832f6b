package enums

// NotificationType labels the system event that produced a notification.
type NotificationType string

const (
	NotificationOrderPlaced    NotificationType = "order_placed"
	NotificationOrderDelivered NotificationType = "order_delivered"
	NotificationSystem         NotificationType = "system"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationOrderPlaced, NotificationOrderDelivered, NotificationSystem:
		return true
	}
	return false
}
