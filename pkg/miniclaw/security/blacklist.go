package security

import (
	"path/filepath"
	"strings"
)

// blacklistedCommands are never executed by the exec tool, regardless of
// arguments. Matching is case-insensitive on the basename of the command,
// so "/usr/bin/SUDO" and "sudo" are both rejected.
var blacklistedCommands = map[string]bool{
	"rm":       true,
	"sudo":     true,
	"dd":       true,
	"mkfs":     true,
	"shutdown": true,
	"reboot":   true,
	"passwd":   true,
	"visudo":   true,
}

// IsBlacklisted reports whether command names a blocked program. Only the
// final path component is considered: "rm -rf" passed as a single string is
// the caller's problem, this checks the program being invoked.
func IsBlacklisted(command string) bool {
	base := filepath.Base(strings.TrimSpace(command))
	return blacklistedCommands[strings.ToLower(base)]
}
