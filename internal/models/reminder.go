package models

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a reminder id has no matching record,
	// including the benign case where it was deleted between scan and dispatch.
	ErrNotFound = errors.New("reminder not found")

	// ErrValidation is returned when a record is rejected before it is stored.
	ErrValidation = errors.New("invalid reminder")
)

type Reminder struct {
	ID        int64     `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	DueAt     time.Time `json:"due_at"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
}
