package services

import (
	"fmt"
	"os"
	"time"

	"github.com/trobanga/hl7anon/internal/lib"
)

// CacheLock represents an exclusive file lock on a term cache
// Prevents two runs of a campaign from assigning terms concurrently
type CacheLock struct {
	cacheFile string
	lockFile  *os.File
	lockPath  string
	logger    *lib.Logger
}

// LockPath returns the lock file guarding a cache file
func LockPath(cacheFile string) string {
	return cacheFile + ".lock"
}

// AcquireCacheLock takes the exclusive lock on a term cache without blocking
// Returns lib.ErrCacheLocked if another process holds it. The operating
// system drops the lock when the process exits.
func AcquireCacheLock(cacheFile string, logger *lib.Logger) (*CacheLock, error) {
	lockPath := LockPath(cacheFile)

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, lib.WrapFileError(lockPath, err)
	}

	held, err := tryLock(lockFile)
	if err != nil || held {
		_ = lockFile.Close()
		if held {
			return nil, lib.ErrCacheLocked(cacheFile)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	lock := &CacheLock{
		cacheFile: cacheFile,
		lockFile:  lockFile,
		lockPath:  lockPath,
		logger:    logger,
	}

	if err := lock.writeLockInfo(); err != nil {
		logger.Warn("Failed to write lock info", "cache_file", cacheFile, "error", err)
	}

	logger.Debug("Acquired cache lock", "cache_file", cacheFile, "pid", os.Getpid())
	return lock, nil
}

// Release releases the cache lock; releasing twice is a no-op
func (cl *CacheLock) Release() error {
	if cl.lockFile == nil {
		return nil
	}

	if err := unlock(cl.lockFile); err != nil {
		cl.logger.Warn("Failed to release lock", "cache_file", cl.cacheFile, "error", err)
	}

	if err := cl.lockFile.Close(); err != nil {
		cl.logger.Warn("Failed to close lock file", "cache_file", cl.cacheFile, "error", err)
		return err
	}

	cl.logger.Debug("Released cache lock", "cache_file", cl.cacheFile, "pid", os.Getpid())
	cl.lockFile = nil
	return nil
}

// IsCacheLocked reports whether any process holds the lock on cacheFile
// The check does not keep the lock
func IsCacheLocked(cacheFile string) bool {
	lockFile, err := os.Open(LockPath(cacheFile))
	if err != nil {
		return false
	}
	defer func() {
		_ = lockFile.Close()
	}()

	held, err := tryLock(lockFile)
	if err != nil || held {
		return held
	}
	_ = unlock(lockFile)
	return false
}

// writeLockInfo records the holder in the lock file for humans
func (cl *CacheLock) writeLockInfo() error {
	lockInfo := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	_ = cl.lockFile.Truncate(0)
	_, _ = cl.lockFile.Seek(0, 0)
	_, _ = cl.lockFile.WriteString(lockInfo)
	return cl.lockFile.Sync()
}
