package deps

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// CheckWritableDir reports whether the process may create files in path,
// walking up to the nearest existing ancestor when path does not exist yet.
func CheckWritableDir(name, path string) Status {
	status := Status{Name: name, Command: path, Description: "Directory must be writable"}
	if path == "" {
		status.Detail = "path not configured"
		return status
	}

	target := filepath.Clean(path)
	for {
		info, err := os.Stat(target)
		if err == nil {
			if !info.IsDir() {
				status.Detail = fmt.Sprintf("%s is not a directory", target)
				return status
			}
			break
		}
		parent := filepath.Dir(target)
		if parent == target {
			status.Detail = fmt.Sprintf("no existing ancestor for %s", path)
			return status
		}
		target = parent
	}

	if err := unix.Access(target, unix.W_OK|unix.X_OK); err != nil {
		status.Detail = fmt.Sprintf("%s not writable: %v", target, err)
		return status
	}
	status.Available = true
	status.Path = target
	return status
}
