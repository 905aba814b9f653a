package domain

import "errors"

var (
	// ErrNotFound is returned when a link id does not exist (anymore).
	ErrNotFound = errors.New("link not found")

	// ErrStorageUnavailable wraps every failure of the persistent store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidURL is returned when a save carries no URL at all.
	ErrInvalidURL = errors.New("missing url")

	// ErrReminderInPast is returned when a reminder is armed at a time that already passed.
	ErrReminderInPast = errors.New("reminder time is in the past")
)
