package gate

import (
	"testing"

	"github.com/naveenspark/teller/pkg/domain"
)

type principal struct {
	authed bool
	role   domain.Role
}

func (p principal) IsAuthenticated() bool { return p.authed }
func (p principal) Role() domain.Role     { return p.role }

var (
	anon  = principal{}
	user  = principal{authed: true, role: domain.RoleUser}
	admin = principal{authed: true, role: domain.RoleAdmin}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		p    Principal
		path string
		want Decision
	}{
		{"anon dashboard", anon, "/dashboard", RedirectToLogin},
		{"anon root", anon, "/", RedirectToLogin},
		{"anon admin", anon, "/admin", RedirectToLogin},
		{"anon login", anon, "/login", Allow},
		{"anon register", anon, "/register", Allow},
		{"anon unknown", anon, "/nope", RedirectToLogin},
		{"nil principal", nil, "/account", RedirectToLogin},

		{"user dashboard", user, "/dashboard", Allow},
		{"user account", user, "/account", Allow},
		{"user transfer", user, "/transfer", Allow},
		{"user transactions", user, "/transactions", Allow},
		{"user admin", user, "/admin", RedirectToDashboard},
		{"user login", user, "/login", RedirectToDashboard},
		{"user register", user, "/register", RedirectToDashboard},
		{"user root", user, "/", RedirectToDashboard},
		{"user unknown", user, "/nope", RedirectToDashboard},

		{"admin admin", admin, "/admin", Allow},
		{"admin login", admin, "/login", RedirectToDashboard},

		{"trailing slash", admin, "/admin/", Allow},
		{"upper case", user, "/Dashboard", Allow},
		{"no leading slash", user, "transfer", Allow},
		{"query", anon, "/login?next=/admin", Allow},
		{"dot segments", user, "/account/../admin", RedirectToDashboard},
		{"empty", anon, "", RedirectToLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.p, tt.path); got != tt.want {
				t.Errorf("Decide(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		p    Principal
		path string
		want string
	}{
		{anon, "/transfer", Login},
		{user, "/admin", Dashboard},
		{admin, "/admin/", Admin},
		{user, "/", Dashboard},
	}
	for _, tt := range tests {
		if got := Resolve(tt.p, tt.path); got != tt.want {
			t.Errorf("Resolve(%v, %q) = %q, want %q", tt.p, tt.path, got, tt.want)
		}
	}
}
