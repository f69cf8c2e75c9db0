package store

import (
	"errors"
	"os"
)

// ErrLocked is returned when another process holds the store lock.
var ErrLocked = errors.New("store is locked by another process")

type fileLock struct {
	f *os.File
}
