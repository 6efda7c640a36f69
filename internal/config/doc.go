// Package config loads the storefront client configuration.
//
// The configuration lives in storefront.json (or storefront.yaml) in the
// working directory or the user config directory. Missing fields take
// defaults, and a few environment variables override the file:
//
//	STOREFRONT_API_URL      backend base URL
//	STOREFRONT_TOKEN_STORE  memory, file, sqlite, postgres or redis
//	STOREFRONT_LOG_LEVEL    debug, info, warn or error
//
// # Configuration File Structure
//
//	{
//	  "apiUrl": "http://localhost:3001",
//	  "timeout": "10s",
//	  "tokenStore": {
//	    "kind": "redis",
//	    "url": "redis://localhost:6379/0",
//	    "prefix": "storefront:",
//	    "ttl": "720h"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "telemetry": {
//	    "metrics": true,
//	    "metricsAddr": "127.0.0.1:9464",
//	    "tracing": false
//	  },
//	  "devBackend": {
//	    "addr": "127.0.0.1:3001",
//	    "tokenTtl": "24h"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Resolve("", ".")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
//	if err := cfg.Validate(); err != nil {
//	    ...
//	}
package config
