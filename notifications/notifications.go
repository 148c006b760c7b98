// Package notifications defines the notification types and the service
// interface used to deliver them.
package notifications

import "context"

// Notification is an email message to be delivered to a user, with both an
// HTML and a plain text body.
type Notification struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
	PlainBody string
}

// NotificationService is the interface implemented by the mail backends.
type NotificationService interface {
	Init(conf any) error
	SendNotification(context.Context, *Notification) error
}
