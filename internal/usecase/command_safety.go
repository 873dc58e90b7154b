package usecase

import "strings"

// blockedCommandFragments are substrings that disqualify a user command
// from running inside a lab pod. Matching is case-insensitive and
// substring-based, which errs on the side of blocking.
var blockedCommandFragments = []string{
	"rm -rf", "sudo", "su", "passwd", "shutdown", "reboot",
	"kill", "killall", "pkill", "halt", "poweroff",
	"dd", "mkfs", "fdisk", "mount", "umount",
}

// IsCommandSafe reports whether a user-supplied command passes the
// denylist. Setup steps from the template catalog bypass this check.
func IsCommandSafe(command string) bool {
	lowered := strings.ToLower(command)
	for _, blocked := range blockedCommandFragments {
		if strings.Contains(lowered, blocked) {
			return false
		}
	}
	return true
}
