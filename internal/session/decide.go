package session

import "github.com/I-Yanis-I/museum-app/internal/domain/user"

type TokenState int

const (
	TokenAbsent TokenState = iota
	TokenValid
	TokenInvalid
)

type Action int

const (
	Allow Action = iota
	RedirectLogin
	RedirectHome
)

type Decision struct {
	Action Action
	// ClearCookies drops both auth cookies on the response.
	ClearCookies bool
	// KeepFrom adds the requested path as the from parameter of the login redirect.
	KeepFrom bool
}

// Decide is the page gate state machine. It is pure: the caller classifies the
// path, verifies the token and applies the decision.
//
// A failed verification redirects to login, except on a Guest page: that page
// is the login form itself, so the request is served with the cookies cleared
// rather than redirected back to itself.
func Decide(class Class, token TokenState, role user.Role) Decision {
	switch token {
	case TokenAbsent:
		if class.RequiresAuth() {
			return Decision{Action: RedirectLogin, KeepFrom: true}
		}
		return Decision{Action: Allow}

	case TokenInvalid:
		if class == Guest {
			return Decision{Action: Allow, ClearCookies: true}
		}
		return Decision{Action: RedirectLogin, ClearCookies: true, KeepFrom: class.RequiresAuth()}

	default:
		switch {
		case class == Guest:
			return Decision{Action: RedirectHome}
		case class == Admin && role != user.RoleAdmin:
			return Decision{Action: RedirectHome}
		}
		return Decision{Action: Allow}
	}
}
