package viewgate

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/civilshq/civilshq-go/session"
)

// DecisionKind classifies what the application should present for a
// requested destination.
type DecisionKind int

const (
	// DecisionRender presents the requested destination.
	DecisionRender DecisionKind = iota
	// DecisionLoginRedirect presents the login view with an explanatory message.
	DecisionLoginRedirect
	// DecisionDashboardRedirect presents the role-appropriate default dashboard.
	DecisionDashboardRedirect
)

// Decision is the outcome of resolving a destination against the session.
type Decision struct {
	Kind         DecisionKind
	Destination  string       // Where to go: the requested route, login, or a dashboard
	RequiredRole session.Role // Set on login redirects for gated routes
	CurrentRole  session.Role // Set when an authenticated principal has the wrong role
	Message      string       // Friendly explanation for login redirects
}

// Resolver decides which view to present for a destination, remembering
// denied destinations so a matching login can land the user where they
// originally asked to go.
type Resolver struct {
	mu     sync.Mutex
	store  *session.Store
	routes map[string]session.Role

	pendingDestination string
	pendingRole        session.Role
}

// NewResolver creates a Resolver over the session store, pre-registered
// with the platform's gated destinations.
func NewResolver(store *session.Store) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("[NewResolver] session store is required")
	}

	routes := make(map[string]session.Role, len(defaultRoutes))
	for route, role := range defaultRoutes {
		routes[route] = role
	}

	return &Resolver{
		store:  store,
		routes: routes,
	}, nil
}

// Register adds or replaces a gated destination.
func (r *Resolver) Register(destination string, required session.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[destination] = required
}

// Resolve decides what to present for destination given the current session.
func (r *Resolver) Resolve(destination string) Decision {
	current := r.store.Get()

	r.mu.Lock()
	required, gated := r.routes[destination]
	r.mu.Unlock()

	if !gated {
		// An authenticated principal asking for the login view is bounced to
		// their own dashboard instead.
		if destination == RouteLogin && current.Authenticated() {
			return Decision{
				Kind:        DecisionDashboardRedirect,
				Destination: DefaultDashboard(current.Role),
			}
		}
		return Decision{Kind: DecisionRender, Destination: destination}
	}

	if !current.Authenticated() {
		r.setPending(destination, required)
		return Decision{
			Kind:         DecisionLoginRedirect,
			Destination:  RouteLogin,
			RequiredRole: required,
			Message:      fmt.Sprintf("please log in as %s to access %s", required, destination),
		}
	}

	if current.Role != required {
		r.setPending(destination, required)
		return Decision{
			Kind:         DecisionLoginRedirect,
			Destination:  RouteLogin,
			RequiredRole: required,
			CurrentRole:  current.Role,
			Message: fmt.Sprintf("%s requires the %s role, but you are logged in as %s",
				destination, required, current.Role),
		}
	}

	return Decision{Kind: DecisionRender, Destination: destination}
}

// ConsumePending returns and forgets the destination that triggered the most
// recent login redirect, with the role it requires. ok is false when no
// redirect is outstanding.
func (r *Resolver) ConsumePending() (destination string, required session.Role, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pendingDestination == "" {
		return "", "", false
	}
	destination, required = r.pendingDestination, r.pendingRole
	r.pendingDestination, r.pendingRole = "", ""
	return destination, required, true
}

func (r *Resolver) setPending(destination string, required session.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingDestination = destination
	r.pendingRole = required
}
