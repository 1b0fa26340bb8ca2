package core

// Access is the gate an endpoint sits behind.
type Access int

const (
	AccessPublic        Access = iota // no identity required
	AccessAuthenticated               // valid session token
	AccessAdmin                       // valid session token and admin role
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	case AccessAdmin:
		return "admin"
	}
	return "unknown"
}

// Endpoint is a framework-agnostic route description. Adapters bind a
// handler to each OperationID.
type Endpoint struct {
	Path        string
	Method      string
	Access      Access
	OperationID string
	Description string
}
