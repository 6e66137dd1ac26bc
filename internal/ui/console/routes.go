// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

// Route identifies a screen of the console.
type Route int

const (
	RouteLogin Route = iota
	RouteRegister
	RouteVerifyAccount
	RouteForgotPassword
	RouteDashboard
	RouteUsers
	RouteUserDetail
	RouteProfile
	RouteSettings
	RouteHelp
	RouteDenied
)

// String returns the route's display name.
func (r Route) String() string {
	switch r {
	case RouteLogin:
		return "Sign In"
	case RouteRegister:
		return "Register"
	case RouteVerifyAccount:
		return "Verify Account"
	case RouteForgotPassword:
		return "Password Reset"
	case RouteDashboard:
		return "Dashboard"
	case RouteUsers:
		return "Users"
	case RouteUserDetail:
		return "User"
	case RouteProfile:
		return "My Profile"
	case RouteSettings:
		return "Settings"
	case RouteHelp:
		return "Help"
	case RouteDenied:
		return "Access Denied"
	default:
		return "Unknown"
	}
}

// Guard is the access level a route demands.
type Guard int

const (
	// GuardPublic routes are reachable without a session.
	GuardPublic Guard = iota
	// GuardAuthenticated routes require a session.
	GuardAuthenticated
	// GuardAdmin routes additionally require the ADMIN role.
	GuardAdmin
)

// RoleAdmin is the role tag gating administrative routes.
const RoleAdmin = "ADMIN"

// guards maps every route to its access level.
var guards = map[Route]Guard{
	RouteLogin:          GuardPublic,
	RouteRegister:       GuardPublic,
	RouteVerifyAccount:  GuardPublic,
	RouteForgotPassword: GuardPublic,
	RouteDashboard:      GuardAuthenticated,
	RouteProfile:        GuardAuthenticated,
	RouteSettings:       GuardAuthenticated,
	RouteHelp:           GuardPublic,
	RouteDenied:         GuardAuthenticated,
	RouteUsers:          GuardAdmin,
	RouteUserDetail:     GuardAdmin,
}

// GuardFor returns the access level for a route.
func GuardFor(r Route) Guard {
	if g, ok := guards[r]; ok {
		return g
	}
	return GuardAuthenticated
}

// sessionReader is the slice of the session store the router needs.
type sessionReader interface {
	Active() bool
	HasRole(candidates ...string) bool
}

// CheckGuard decides whether the current session may enter a route.
// The role check here is the fast local one; sensitive data loads
// still run the authoritative server-side check. On refusal it returns
// where to send the user instead.
func CheckGuard(r Route, sess sessionReader) (allowed bool, redirect Route) {
	switch GuardFor(r) {
	case GuardPublic:
		return true, 0
	case GuardAuthenticated:
		if !sess.Active() {
			return false, RouteLogin
		}
		return true, 0
	default: // GuardAdmin
		if !sess.Active() {
			return false, RouteLogin
		}
		if !sess.HasRole(RoleAdmin) {
			return false, RouteDenied
		}
		return true, 0
	}
}
