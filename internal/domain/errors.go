package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateEmail        = errors.New("email already exists")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrScheduleConflict      = errors.New("organizer already has an event at this date and time")
	ErrAlreadyAttending      = errors.New("user already attending the event")
	ErrNotAttending          = errors.New("user not attending the event")
	ErrOrganizerCannotAttend = errors.New("organizers cannot attend events")
)
