// Package gate decides whether a view may be shown to the current principal.
package gate

import (
	"path"
	"strings"

	"github.com/naveenspark/teller/pkg/domain"
)

// Decision is the outcome of a gate check.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToDashboard
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToDashboard:
		return "redirect_to_dashboard"
	default:
		return "unknown"
	}
}

// View paths.
const (
	Root         = "/"
	Login        = "/login"
	Register     = "/register"
	Dashboard    = "/dashboard"
	Account      = "/account"
	Transfer     = "/transfer"
	Transactions = "/transactions"
	Admin        = "/admin"
)

type access int

const (
	public access = iota
	protected
	adminOnly
)

var views = map[string]access{
	Login:        public,
	Register:     public,
	Root:         protected,
	Dashboard:    protected,
	Account:      protected,
	Transfer:     protected,
	Transactions: protected,
	Admin:        adminOnly,
}

// Principal is what the gate needs to know about the current user.
// *session.Session implements it.
type Principal interface {
	IsAuthenticated() bool
	Role() domain.Role
}

// Decide returns what should happen when p asks for the view at path.
// A nil principal is anonymous.
func Decide(p Principal, requested string) Decision {
	authed := p != nil && p.IsAuthenticated()
	target := Normalize(requested)
	acc, known := views[target]

	if !authed {
		if known && acc == public {
			return Allow
		}
		return RedirectToLogin
	}

	switch {
	case !known, acc == public, target == Root:
		return RedirectToDashboard
	case acc == adminOnly && p.Role() != domain.RoleAdmin:
		// Never rendered for non-admins.
		return RedirectToDashboard
	}
	return Allow
}

// Resolve follows a decision to the path that should actually be shown.
func Resolve(p Principal, requested string) string {
	switch Decide(p, requested) {
	case RedirectToLogin:
		return Login
	case RedirectToDashboard:
		return Dashboard
	}
	return Normalize(requested)
}

// Normalize lower-cases a path, adds the leading slash and drops trailing
// slashes, query and fragment.
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.ToLower(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
