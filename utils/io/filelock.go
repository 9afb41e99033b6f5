package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".vm.lock"

// DirLock guards a state directory against being opened by two processes.
type DirLock struct {
	lock *flock.Flock
}

// NewDirLock returns the lock of dir. The directory is created on Lock if it
// does not exist yet.
func NewDirLock(dir string) *DirLock {
	return &DirLock{
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}
}

// Lock acquires the lock without blocking. It fails if another process holds
// it.
func (l *DirLock) Lock() error {
	err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0755)
	if err != nil {
		return fmt.Errorf("could not create directory of %s: %w", l.lock.Path(), err)
	}

	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("could not lock %s: %w", l.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%s is locked by another process", l.lock.Path())
	}
	return nil
}

func (l *DirLock) Unlock() error {
	err := l.lock.Unlock()
	if err != nil {
		return fmt.Errorf("could not unlock %s: %w", l.lock.Path(), err)
	}
	return nil
}
