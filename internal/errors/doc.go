// Package errors provides structured, actionable errors for the storefront
// CLI and configuration loader.
//
// Each error has a registered code that maps to a short message, a longer
// explanation and, where there is one, a suggested fix:
//
//   - E1xx: configuration (bad URL, unknown token store, unreadable file)
//   - E2xx: CLI, session and storage (not signed in, backend unreachable)
//
// # Usage
//
//	err := errors.New("E101").
//	    WithField("tokenStore.kind").
//	    WithDetail(`"dynamo" is not a supported token store`)
//
//	errors.PrintError(err)
//	// ERROR E101: Unknown token store
//	//
//	//   Field: tokenStore.kind
//	//
//	//   "dynamo" is not a supported token store
//	//
//	//   Hint: Use one of: memory, file, sqlite, postgres, redis
package errors
