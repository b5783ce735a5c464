package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps "METHOD /route/template" (HTTP) or the full gRPC
// method name to its required security level. Anything not listed requires an
// access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"POST /api/v1/auth/login":    SecurityPublic,
	"POST /api/v1/organizations": SecurityPublic,
	"GET /api/v1/health":         SecurityPublic,

	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
	"/grpc.health.v1.Health/List":  SecurityPublic,

	"GET /api/v1/organizations":             SecurityAccess,
	"GET /api/v1/organizations/{id}":        SecurityAccess,
	"PUT /api/v1/organizations/{id}/parent": SecurityAccess,

	"GET /api/v1/venues":                   SecurityAccess,
	"POST /api/v1/venues":                  SecurityAccess,
	"GET /api/v1/venues/{id}":              SecurityAccess,
	"PUT /api/v1/venues/{id}":              SecurityAccess,
	"DELETE /api/v1/venues/{id}":           SecurityAccess,
	"GET /api/v1/venues/{id}/availability": SecurityAccess,
	"GET /api/v1/venues/{id}/bookings":     SecurityAccess,

	"GET /api/v1/events":              SecurityAccess,
	"POST /api/v1/events":             SecurityAccess,
	"GET /api/v1/events/{id}":         SecurityAccess,
	"PATCH /api/v1/events/{id}":       SecurityAccess,
	"POST /api/v1/events/{id}/review": SecurityAccess,
	"POST /api/v1/events/{id}/cancel": SecurityAccess,
}

// GetSecurityLevel returns the security level for a route
func GetSecurityLevel(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAccess
}
