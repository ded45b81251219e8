// Package user owns the local user record and the lifecycle orchestration
// that keeps it consistent with the external identity provider.
package user

import "time"

// User is the local record of a provider identity. ID is assigned by the
// store and immutable. ExternalID is the provider-issued subject, unique and
// immutable once set; it is the cross-system join key, so a record never
// exists without the matching provider identity (the partial-create window
// excepted, where the provider identity exists without a record).
type User struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Page is one page of user records plus paging envelope fields.
type Page struct {
	Users         []User `json:"users"`
	TotalElements int64  `json:"total_elements"`
	TotalPages    int    `json:"total_pages"`
	CurrentPage   int    `json:"current_page"`
	PageSize      int    `json:"page_size"`
}

// CreateInput carries the caller-supplied fields for a new user.
type CreateInput struct {
	Name     string
	LastName string
	Email    string
	Phone    string
}

// UpdateInput carries the mutable profile fields.
type UpdateInput struct {
	Name     string
	LastName string
	Email    string
	Phone    string
}
