package auth

// Credentials is the persistent login record of a user.
type Credentials struct {
	ID       int32
	Name     string
	Password string
}

// User identifies a persistent user.
type User struct {
	ID   int32
	Name string
}

// PermissionDefinition is a named access right and the bit it contributes.
type PermissionDefinition struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

// LoginPolicy decides what a login does when a session is already cached.
type LoginPolicy string

const (
	// PolicyTrustCache re-issues the cached record unchanged.
	PolicyTrustCache LoginPolicy = "trust_cache"
	// PolicyAlwaysRefresh recomputes the mask and updates the cached record
	// before re-issuing it.
	PolicyAlwaysRefresh LoginPolicy = "refresh"
)
