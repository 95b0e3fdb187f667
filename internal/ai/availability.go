package ai

import "os/exec"

// Locate resolves binary on PATH. A name containing a slash is checked as
// given.
func Locate(binary string) (string, bool) {
	if binary == "" {
		return "", false
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", false
	}
	return path, true
}
