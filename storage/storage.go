// Package storage provides the key-value stores a translation cache persists into.
//
// Every adapter is synchronous and capacity-limited in some way: Memory and File
// enforce a byte quota, Redis inherits the server's maxmemory setting. A write that
// does not fit fails with an error for which IsQuotaExceeded reports true.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Adapter is the interface for the persistent key-value store.
type Adapter interface {
	// Get returns the value stored under key. Returns empty string and false if absent.
	// A non-nil error means the store could not be read; the key may still exist.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// ErrQuotaExceeded is returned when a write does not fit in the store.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// QuotaError describes a write rejected by a byte quota.
type QuotaError struct {
	Key   string
	Size  int64 // Bytes the store would hold after the write
	Limit int64 // Configured quota in bytes
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("storage quota exceeded: writing %q needs %d bytes, limit is %d", e.Key, e.Size, e.Limit)
}

// QuotaExceeded reports true; it lets IsQuotaExceeded recognise the error without
// knowing its concrete type.
func (e *QuotaError) QuotaExceeded() bool {
	return true
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// quotaPatterns are lower-cased fragments different stores use to signal a full store.
var quotaPatterns = []string{
	"quota exceeded",
	"quotaexceedederror",
	"ns_error_dom_quota_reached",
	"oom command not allowed",
	"no space left on device",
	"disk quota exceeded",
}

// IsQuotaExceeded checks whether err signals that the store ran out of capacity.
// Stores report this condition differently, so the check is deliberately generic.
func IsQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	var q interface{ QuotaExceeded() bool }
	if errors.As(err, &q) && q.QuotaExceeded() {
		return true
	}

	if errors.Is(err, syscall.ENOSPC) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range quotaPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
