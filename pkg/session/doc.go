// Package session manages the storefront login session.
//
// The Manager holds the bearer token and the signed-in user's profile.
// Views read its three-state Status and branch on it:
//
//	switch mgr.Status() {
//	case session.StatusLoading:
//	    // wait for hydration
//	case session.StatusAnonymous:
//	    // redirect to login
//	case session.StatusAuthenticated:
//	    // fetch data
//	}
//
// # Token Storage
//
// Only the token is persisted, under the single key "token". Backends:
//
//	storage := session.NewFileStorage(path)   // default
//	storage := session.NewMemoryStorage()     // tests, --ephemeral
//	storage := session.NewSQLStorage(db)      // SQLite or PostgreSQL
//	storage := session.NewRedisStorage(rdb)   // shared across machines
//
// # Hydration
//
// Hydrate reads the persisted token once at startup and validates it with
// GET /api/auth/me. JWTs whose exp claim has passed are dropped without a
// network call. A rejected token is deleted; an unreachable backend leaves
// it in place for the next start.
package session
