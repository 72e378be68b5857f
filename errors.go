package stardex

import (
	"errors"
	"fmt"

	"github.com/stardex-app/stardex/archive"
	"github.com/stardex-app/stardex/fetch"
)

var (
	// ErrArchiveMissing indicates no archive exists yet (first-run
	// condition, resolved by OpenOrBuild).
	ErrArchiveMissing = errors.New("archive missing")

	// ErrArchiveCorrupt indicates a checksum, version or structural
	// failure. The archive must be rebuilt; it is never partially trusted.
	ErrArchiveCorrupt = errors.New("archive corrupt")

	// ErrNotFound indicates a query-level miss; recoverable.
	ErrNotFound = errors.New("not found")

	// ErrNotReady is returned for queries before the store is open.
	ErrNotReady = errors.New("store not ready")

	// ErrRenewInProgress is returned when a renew is requested while a
	// build or renew is already running.
	ErrRenewInProgress = errors.New("renew already in progress")

	// ErrSyncFailed wraps a total fetch failure during build or renew.
	ErrSyncFailed = errors.New("sync failed")
)

// translateError unifies package-level errors into the public taxonomy.
// The original error remains reachable via errors.Unwrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, archive.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, archive.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrArchiveCorrupt, err)
	}
	if errors.Is(err, archive.ErrMissing) {
		return fmt.Errorf("%w: %w", ErrArchiveMissing, err)
	}
	if errors.Is(err, fetch.ErrTooManyFailures) {
		return fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	return err
}
