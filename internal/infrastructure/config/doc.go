// Package config loads application configuration from CHECKIN_* environment
// variables using kelseyhightower/envconfig.
//
// Nested sections map to prefixed names:
//
//	CHECKIN_API_ATTENDANCE_BASE_URL   https://people.zoho.com/api/forms
//	CHECKIN_API_CHAT_BASE_URL         https://3.basecampapi.com
//	CHECKIN_HTTP_TIMEOUT              10s
//	CHECKIN_HTTP_MAX_RETRIES          3
//	CHECKIN_HTTP_RETRY_DELAY          1s
//	CHECKIN_HTTP_RATE_LIMIT_RPS       0 (unlimited)
//	CHECKIN_HTTP_BREAKER_ENABLED      true
//	CHECKIN_LOGGING_LEVEL             info
//	CHECKIN_LOGGING_DEV               false
//	CHECKIN_CREDENTIALS_FILE          checkin-credentials.toml
//	CHECKIN_CHECKIN_MESSAGE           Good Morning
package config
