package profile

import (
	"time"

	"github.com/MrEthical07/goSession/roles"
)

// Organization is a tenant owning profiles. The session core only reads it to gate
// subscription validity.
type Organization struct {
	ID              string
	Name            string
	Email           string
	UserQuota       int
	UsersCreated    int
	SubscriptionEnd time.Time
}

// SubscriptionActive reports whether the organization's subscription covers now.
// An organization without an end date never lapses.
func (o *Organization) SubscriptionActive(now time.Time) bool {
	if o == nil || o.SubscriptionEnd.IsZero() {
		return true
	}
	return now.Before(o.SubscriptionEnd)
}

// Profile is the application user record.
type Profile struct {
	ID             string
	Email          string
	Username       string
	Role           roles.Role
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Placeholder marks a synthetic profile produced when the real row could not
	// be read or created.
	Placeholder bool
}

// User is a profile with its organization attached, the externally visible
// "current user".
type User struct {
	Profile
	Organization *Organization
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	out := u
	if u.Organization != nil {
		org := *u.Organization
		out.Organization = &org
	}
	return out
}
