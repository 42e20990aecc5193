package guard

import (
	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/roles"
)

// DefaultLoginPath is the public entry point signed-out users are sent to.
const DefaultLoginPath = "/login"

// Action is what the caller must do with a protected view.
type Action uint8

const (
	// ActionWait means the session is still loading; render a waiting state.
	ActionWait Action = iota
	// ActionRedirectLogin sends a signed-out visitor to the login entry point.
	ActionRedirectLogin
	// ActionSubscriptionExpired renders the terminal subscription-expired view.
	ActionSubscriptionExpired
	// ActionRedirectHome sends the user to their role's home view.
	ActionRedirectHome
	// ActionRender renders the protected view.
	ActionRender
)

func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionRedirectLogin:
		return "redirect_login"
	case ActionSubscriptionExpired:
		return "subscription_expired"
	case ActionRedirectHome:
		return "redirect_home"
	case ActionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Input is the state a decision is made from.
type Input struct {
	User              *profile.User
	Loading           bool
	SubscriptionValid bool

	// Attempted is the location the visitor tried to open. It is carried on
	// login redirects so sign-in can return there.
	Attempted string
	// LoginPath defaults to DefaultLoginPath.
	LoginPath string
	// Homes defaults to roles.DefaultTable.
	Homes *roles.Table
}

// Decision is the outcome of [Decide]. Location is set for redirects.
type Decision struct {
	Action    Action
	Location  string
	Attempted string
}

var defaultHomes = roles.DefaultTable()

// Decide applies the guard rules in order: loading waits, a missing user is sent
// to login, a lapsed subscription (never for super_admin) ends at the expired
// view, a role outside allowed is sent home, everything else renders.
func Decide(in Input, allowed []roles.Role) Decision {
	if in.Loading {
		return Decision{Action: ActionWait}
	}
	if in.User == nil {
		login := in.LoginPath
		if login == "" {
			login = DefaultLoginPath
		}
		return Decision{Action: ActionRedirectLogin, Location: login, Attempted: in.Attempted}
	}

	role := in.User.Role
	if role != roles.SuperAdmin && !in.SubscriptionValid {
		return Decision{Action: ActionSubscriptionExpired}
	}

	if !role.In(allowed) {
		homes := in.Homes
		if homes == nil {
			homes = defaultHomes
		}
		return Decision{Action: ActionRedirectHome, Location: homes.Home(role)}
	}
	return Decision{Action: ActionRender}
}
