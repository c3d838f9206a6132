package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// CheckBinary verifies that an external command resolves on PATH.
func CheckBinary(name, command, description string) Result {
	command = strings.TrimSpace(command)
	result := Result{Name: name, Detail: strings.TrimSpace(description)}
	if command == "" {
		result.Detail = "command not configured"
		return result
	}
	path, err := exec.LookPath(command)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", command)
		return result
	}
	result.Passed = true
	result.Detail = path
	return result
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
