// Package config provides configuration loading and validation for mediafold.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (MEDIAFOLD_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with MEDIAFOLD_ prefix:
//   - server.port → MEDIAFOLD_SERVER_PORT
//   - database.type → MEDIAFOLD_DATABASE_TYPE
//   - capability.ttl → MEDIAFOLD_CAPABILITY_TTL
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, public base URL, and metrics exposure
//   - Capability: signing secret, issued TTL, and verification clock skew
//   - Address: internal to external URL prefix rewrite
//   - Stores: the primary media store and the thumbnail cache store
//   - Database: registry type, DSN, and table name
//   - Thumbnail: maximum rendered dimension
//   - Auth: write API credentials
//   - CORS: cross-origin settings for the write API
//   - Log: logging level and format
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Public base URL must be a valid URL
//   - Log level must be debug, info, warn, or error
//   - Log format must be text or json
package config
