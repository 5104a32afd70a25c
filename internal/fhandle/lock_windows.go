//go:build windows

package fhandle

import "os"

// lockExclusive is a no-op on Windows: robust cross-process locking
// needs LockFileEx via syscall, which this engine does not depend on
// since it only ever runs one sort per process.
func lockExclusive(f *os.File) error { return nil }

func unlockExclusive(f *os.File) error { return nil }
