// Package gate decides whether a view may be shown to the current user.
package gate

// AuthRoute is where unauthenticated users are sent.
const AuthRoute = "/auth"

// IdentitySource reports whether an identity is recorded.
type IdentitySource interface {
	IsAuthenticated() bool
}

type Decision struct {
	Allow    bool
	Redirect string
}

// Gate reads local state only and never blocks.
type Gate struct {
	src IdentitySource
}

func New(src IdentitySource) *Gate {
	return &Gate{src: src}
}

func (g *Gate) IsAuthenticated() bool {
	return g.src.IsAuthenticated()
}

// Check allows unprotected views unconditionally and protected views only
// when someone is logged in.
func (g *Gate) Check(protected bool) Decision {
	if !protected || g.IsAuthenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: AuthRoute}
}
