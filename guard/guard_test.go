package guard

import (
	"testing"

	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/roles"
)

func user(role roles.Role) *profile.User {
	return &profile.User{Profile: profile.Profile{ID: "u1", Role: role}}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		allowed  []roles.Role
		action   Action
		location string
	}{
		{
			name:    "loading waits",
			in:      Input{Loading: true, User: user(roles.Admin), SubscriptionValid: true},
			allowed: []roles.Role{roles.Admin},
			action:  ActionWait,
		},
		{
			name:     "signed out goes to login",
			in:       Input{Attempted: "/admin/users"},
			allowed:  []roles.Role{roles.Admin},
			action:   ActionRedirectLogin,
			location: DefaultLoginPath,
		},
		{
			name:    "lapsed subscription is terminal",
			in:      Input{User: user(roles.Admin), SubscriptionValid: false},
			allowed: []roles.Role{roles.User},
			action:  ActionSubscriptionExpired,
		},
		{
			name:     "super admin skips subscription",
			in:       Input{User: user(roles.SuperAdmin), SubscriptionValid: false},
			allowed:  []roles.Role{roles.Admin},
			action:   ActionRedirectHome,
			location: "/superadmin",
		},
		{
			name:     "admin outside user view goes home",
			in:       Input{User: user(roles.Admin), SubscriptionValid: true},
			allowed:  []roles.Role{roles.User},
			action:   ActionRedirectHome,
			location: "/admin",
		},
		{
			name:     "user outside admin view goes home",
			in:       Input{User: user(roles.User), SubscriptionValid: true},
			allowed:  []roles.Role{roles.Admin},
			action:   ActionRedirectHome,
			location: "/",
		},
		{
			name:     "unknown role goes to root",
			in:       Input{User: user(roles.Role("viewer")), SubscriptionValid: true},
			allowed:  []roles.Role{roles.Admin},
			action:   ActionRedirectHome,
			location: "/",
		},
		{
			name:    "allowed role renders",
			in:      Input{User: user(roles.Admin), SubscriptionValid: true},
			allowed: []roles.Role{roles.Admin, roles.SuperAdmin},
			action:  ActionRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.in, tt.allowed)
			if d.Action != tt.action || d.Location != tt.location {
				t.Fatalf("Decide = %s %q, want %s %q", d.Action, d.Location, tt.action, tt.location)
			}
		})
	}
}

func TestDecideCarriesAttemptedLocation(t *testing.T) {
	d := Decide(Input{Attempted: "/reports?page=2", LoginPath: "/signin"}, nil)
	if d.Location != "/signin" || d.Attempted != "/reports?page=2" {
		t.Fatalf("unexpected login redirect %+v", d)
	}
}

func TestDecideCustomHomes(t *testing.T) {
	homes := roles.NewTable()
	if err := homes.Register(roles.Admin, "/console"); err != nil {
		t.Fatalf("register: %v", err)
	}
	homes.Freeze()

	d := Decide(Input{User: user(roles.Admin), SubscriptionValid: true, Homes: homes}, []roles.Role{roles.User})
	if d.Location != "/console" {
		t.Fatalf("expected custom home, got %q", d.Location)
	}
}
