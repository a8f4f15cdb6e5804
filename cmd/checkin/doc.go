// Package main is the entry point for the checkin command.
//
// checkin records attendance with Zoho People at the given coordinates and
// then posts a greeting to a Basecamp project.
//
// Configuration:
//   - CHECKIN_* environment variables
//   - a .env file in the working directory, if present
//   - credentials in CHECKIN_CREDENTIALS_FILE (TOML or YAML)
//
// Usage:
//
//	checkin setup attendance --access-token ...
//	checkin setup chat --access-token ... --account-id ... --project-id ...
//	checkin validate
//	checkin run --lat 12.9716 --lng 77.5946
//
// Signals:
//   - SIGINT, SIGTERM: cancel in-flight requests and retries
package main
