// Package model defines the wire format of a contact for API clients.
package model

import "time"

// Contact is the data structure for a person in the contact book as it
// appears in API responses. The name is always set, everything else may be
// absent.
type Contact struct {
	Id        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Company   *string   `json:"company"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
