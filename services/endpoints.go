package services

import (
	"fmt"
	"sort"

	"github.com/lborres/bantay/core"
)

// Operation ids shared between the catalog and the adapters that bind them.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpLogout         = "logout"
	OpMe             = "me"
	OpGetProfile     = "getProfile"
	OpUpdateProfile  = "updateProfile"
	OpChangePassword = "changePassword"
	OpListUsers      = "listUsers"
	OpCreateUser     = "createUser"
	OpUpdateUser     = "updateUser"
	OpHealth         = "health"
)

// BaseEndpoints returns the framework-agnostic endpoint catalog
// for every route the service exposes, relative to the base path.
//
// Each endpoint carries its access level, so an adapter mounts the
// authentication and authorization middleware from the catalog rather
// than per handler.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		{Path: "/auth/register", Method: "POST", Access: core.AccessPublic, OperationID: OpRegister,
			Description: "Register a user with name, email and password"},
		{Path: "/auth/login", Method: "POST", Access: core.AccessPublic, OperationID: OpLogin,
			Description: "Sign in with email and password"},
		{Path: "/auth/logout", Method: "POST", Access: core.AccessPublic, OperationID: OpLogout,
			Description: "Clear the session cookie"},
		{Path: "/auth/me", Method: "GET", Access: core.AccessAuthenticated, OperationID: OpMe,
			Description: "Get the signed-in user"},

		{Path: "/users/me", Method: "GET", Access: core.AccessAuthenticated, OperationID: OpGetProfile,
			Description: "Get the caller's profile"},
		{Path: "/users/me", Method: "PUT", Access: core.AccessAuthenticated, OperationID: OpUpdateProfile,
			Description: "Update the caller's name or email"},
		{Path: "/users/me/password", Method: "PUT", Access: core.AccessAuthenticated, OperationID: OpChangePassword,
			Description: "Change the caller's password"},

		{Path: "/admin/users", Method: "GET", Access: core.AccessAdmin, OperationID: OpListUsers,
			Description: "List users with paging and search"},
		{Path: "/admin/users", Method: "POST", Access: core.AccessAdmin, OperationID: OpCreateUser,
			Description: "Create a user with any role"},
		{Path: "/admin/users/:id", Method: "PUT", Access: core.AccessAdmin, OperationID: OpUpdateUser,
			Description: "Update another user's record"},

		{Path: "/health", Method: "GET", Access: core.AccessPublic, OperationID: OpHealth,
			Description: "Liveness probe"},
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	endpoints map[string]*core.Endpoint
}

// NewEndpointRegistry creates a registry with all base endpoints
// pre-registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint),
	}
	for _, ep := range BaseEndpoints() {
		// base endpoints are unique by construction
		_ = reg.register(ep)
	}
	return reg
}

func endpointKey(ep core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

func (r *EndpointRegistry) register(ep core.Endpoint) error {
	key := endpointKey(ep)
	if _, exists := r.endpoints[key]; exists {
		return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
	}
	r.endpoints[key] = &ep
	return nil
}

// Register adds extra endpoints. If any of them conflicts with an existing
// endpoint or with another in the same batch, none are registered.
func (r *EndpointRegistry) Register(endpoints ...core.Endpoint) error {
	seen := make(map[string]bool, len(endpoints))
	for _, ep := range endpoints {
		key := endpointKey(ep)
		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("duplicate endpoint in batch: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true
	}

	for _, ep := range endpoints {
		_ = r.register(ep)
	}
	return nil
}

// Endpoints returns every registered endpoint ordered by path, then method.
func (r *EndpointRegistry) Endpoints() []core.Endpoint {
	result := make([]core.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, *ep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].Method < result[j].Method
	})
	return result
}
