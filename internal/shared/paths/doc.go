// Package paths resolves where the check-in utility keeps its files.
//
// A bare file name such as "checkin-credentials.toml" lands in the user
// config directory:
//
//	~/.config/checkinsync/            (Linux, $XDG_CONFIG_HOME respected)
//	~/Library/Application Support/checkinsync/   (macOS)
//	%AppData%\checkinsync\            (Windows)
//
// Relative paths with a directory ("./keys.toml") and absolute paths are
// used as given.
package paths
