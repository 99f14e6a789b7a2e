package model

import "time"

// Contact is the data structure for a single address book entry. The Id and
// CreatedAt fields are assigned by the database and never change afterwards.
// Optional fields are pointers so that a missing value is stored as NULL.
type Contact struct {
	Id        int64     `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     *string   `json:"email"      db:"email"`
	Phone     *string   `json:"phone"      db:"phone"`
	Company   *string   `json:"company"    db:"company"`
	Notes     *string   `json:"notes"      db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ContactUpdate carries the mutable fields of a contact for a partial
// update. A nil field was not part of the request body and keeps its stored
// value; a non-nil field overwrites it.
type ContactUpdate struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Notes   *string `json:"notes"`
}

// ContactPage is one page of search results together with the pagination
// values that produced it. Total counts all matching contacts, Pages is the
// number of pages needed to show them all with the given limit.
type ContactPage struct {
	Data  []Contact `json:"data"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
	Pages int       `json:"pages"`
}
