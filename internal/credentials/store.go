package credentials

import "context"

// AttendanceKeys authenticate against the Zoho attendance API
type AttendanceKeys struct {
	ClientID     string `toml:"client_id" yaml:"client_id"`
	ClientSecret string `toml:"client_secret" yaml:"client_secret"`
	RefreshToken string `toml:"refresh_token" yaml:"refresh_token"`
	AccessToken  string `toml:"access_token" yaml:"access_token"`
}

// ChatKeys authenticate against Basecamp and locate the project to post in
type ChatKeys struct {
	AccessToken string `toml:"access_token" yaml:"access_token"`
	AccountID   string `toml:"account_id" yaml:"account_id"`
	ProjectID   string `toml:"project_id" yaml:"project_id"`
	CampfireID  string `toml:"campfire_id" yaml:"campfire_id"`
}

// Store looks up credential bundles. A nil bundle with a nil error means the
// bundle has not been configured.
type Store interface {
	AttendanceKeys(ctx context.Context) (*AttendanceKeys, error)
	ChatKeys(ctx context.Context) (*ChatKeys, error)
}

// Writer persists credentials entered during setup
type Writer interface {
	SetAttendanceKeys(ctx context.Context, keys AttendanceKeys) error
	SetChatKeys(ctx context.Context, keys ChatKeys) error
	SetSetupComplete(ctx context.Context, complete bool) error
	// SetupComplete reports false when the flag cannot be read
	SetupComplete(ctx context.Context) bool
	// Clear removes every stored bundle and the setup flag
	Clear(ctx context.Context) error
}

// ReadWriter is a Store that can also be written
type ReadWriter interface {
	Store
	Writer
}

// document is the persisted layout shared by every store
type document struct {
	SetupComplete bool            `toml:"setup_complete" yaml:"setup_complete"`
	Attendance    *AttendanceKeys `toml:"attendance,omitempty" yaml:"attendance,omitempty"`
	Chat          *ChatKeys       `toml:"chat,omitempty" yaml:"chat,omitempty"`
}
