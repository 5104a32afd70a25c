//go:build windows

package logsink

import "os"

// lockFile is a no-op on Windows.
func lockFile(file *os.File) error { return nil }

// unlockFile is a no-op on Windows.
func unlockFile(file *os.File) error { return nil }
