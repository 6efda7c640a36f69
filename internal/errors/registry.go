package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E149)
	// ============================================

	"E100": {
		Category:   CategoryConfig,
		Message:    "Invalid API URL",
		Detail:     "The backend URL must be an absolute http or https URL.",
		Suggestion: "Set apiUrl in storefront.json or STOREFRONT_API_URL, e.g. http://localhost:3001",
	},
	"E101": {
		Category:   CategoryConfig,
		Message:    "Unknown token store",
		Detail:     "The session token can be kept in memory, in a file, in a SQL database or in Redis.",
		Suggestion: "Use one of: memory, file, sqlite, postgres, redis",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn or error.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid timeout",
		Detail:   "Timeouts are Go durations such as 10s or 1m30s and must be positive.",
	},
	"E104": {
		Category:   CategoryConfig,
		Message:    "Token store is missing its connection string",
		Detail:     "SQL and Redis token stores need a DSN or URL to connect to.",
		Suggestion: "Set tokenStore.dsn (SQL) or tokenStore.url (Redis)",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid log format",
		Detail:   "The log format must be text or json.",
	},
	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .yaml or .yml.",
	},
	"E141": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No storefront.json or storefront.yaml was found.",
		Suggestion: "Run 'storefront init' to write a default configuration",
	},

	// ============================================
	// CLI and Session Errors (E200-E219)
	// ============================================

	"E200": {
		Category:   CategorySession,
		Message:    "Not signed in",
		Detail:     "This command needs an authenticated session.",
		Suggestion: "Run 'storefront login' first",
	},
	"E201": {
		Category: CategorySession,
		Message:  "Sign in failed",
	},
	"E202": {
		Category:   CategoryNetwork,
		Message:    "Backend unreachable",
		Detail:     "No response was received from the storefront backend.",
		Suggestion: "Check that the backend is running, or start one with 'storefront dev-backend'",
	},
	"E203": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
	"E204": {
		Category: CategoryCLI,
		Message:  "Request failed",
	},

	// ============================================
	// Storage Errors (E220-E249)
	// ============================================

	"E220": {
		Category:   CategoryStorage,
		Message:    "Token storage unavailable",
		Detail:     "The session token store could not be opened.",
		Suggestion: "Use --ephemeral to keep the session in memory for this run",
	},
	"E221": {
		Category: CategoryStorage,
		Message:  "Token storage schema setup failed",
	},
	"E240": {
		Category: CategoryCLI,
		Message:  "Development backend failed",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
