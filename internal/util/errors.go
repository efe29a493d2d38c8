package util

import "errors"

var (
	ErrNoCredential   = errors.New("missing credential: please log in first")
	ErrNoFileSelected = errors.New("Please select a file before submitting.")
	ErrMissingFields  = errors.New("Please fill out all course fields.")
	ErrMissingCourse  = errors.New("Please select a course for the assignment.")
	ErrViewNotAllowed = errors.New("view not allowed for this role")
	ErrStoreClosed    = errors.New("store closed")
)
