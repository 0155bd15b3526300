package domain

type NotificationKind string

const (
	NotifyConfirmed     NotificationKind = "confirmed"
	NotifyAdminAlert    NotificationKind = "admin_alert"
	NotifyStatusChanged NotificationKind = "status_changed"
)
