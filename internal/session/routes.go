// Package session gates page routes on the access token cookie and guards the JSON API.
package session

import "strings"

type Class int

const (
	Public Class = iota
	Protected
	Admin
	// Guest routes are only for anonymous visitors, like the login page.
	Guest
)

func (c Class) String() string {
	switch c {
	case Protected:
		return "protected"
	case Admin:
		return "admin"
	case Guest:
		return "guest"
	default:
		return "public"
	}
}

func (c Class) RequiresAuth() bool { return c == Protected || c == Admin }

type Route struct {
	Prefix string
	Class  Class
}

// Routes is a declarative route table. Prefixes match whole path segments and
// the longest matching prefix wins; "/" matches only the root itself.
type Routes []Route

func DefaultRoutes() Routes {
	return Routes{
		{Prefix: "/", Class: Public},
		{Prefix: "/exhibitions", Class: Public},
		{Prefix: "/about", Class: Public},
		{Prefix: "/login", Class: Guest},
		{Prefix: "/register", Class: Guest},
		{Prefix: "/profile", Class: Protected},
		{Prefix: "/bookings", Class: Protected},
		{Prefix: "/admin", Class: Admin},
	}
}

// Classify returns the class of path; unknown paths are public.
func (rs Routes) Classify(path string) Class {
	best, bestLen := Public, -1
	for _, r := range rs {
		if matchPrefix(r.Prefix, path) && len(r.Prefix) > bestLen {
			best, bestLen = r.Class, len(r.Prefix)
		}
	}
	return best
}

func matchPrefix(prefix, path string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return path == "/" || path == ""
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
