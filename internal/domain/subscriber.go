package domain

import "time"

// Subscriber is a newsletter recipient. Unsubscribing clears Activo rather than
// deleting the row, so an email maps to at most one record.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubscribeResult reports what Subscribe did to the record.
type SubscribeResult int

const (
	SubscribeCreated SubscribeResult = iota
	SubscribeReactivated
	SubscribeAlreadyActive
)
