package notifications

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotOwner             = errors.New("notification belongs to another user")
)
