// Package domain defines the error taxonomy shared across the storage and
// synchronization layers. All sentinel errors are matched with errors.Is().
package domain

import "errors"

var (
	// ErrNotFound indicates a book, chapter or idea id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNameConflict indicates a duplicate book name on create or rename.
	ErrNameConflict = errors.New("book name already in use")

	// ErrImportConflict indicates the remote book id is already present locally.
	ErrImportConflict = errors.New("book already exists locally")

	// ErrNotExportable indicates a sync was attempted on a local-only book.
	ErrNotExportable = errors.New("book has never been exported")

	// ErrUnauthenticated indicates a remote operation was attempted while
	// signed out, or the stored credentials could not be refreshed.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrRemoteUnavailable wraps network or HTTP failures from the remote
	// object store.
	ErrRemoteUnavailable = errors.New("cloud storage unavailable")

	// ErrConflict indicates the other side of a sync has changed since the
	// last successful transfer and an unforced push/pull would discard it.
	ErrConflict = errors.New("sync conflict")

	// ErrSchemaCorruption indicates the local store failed its layout
	// self-check and cannot be opened without a destructive recreate.
	ErrSchemaCorruption = errors.New("local store schema corrupted")

	// ErrSyncBusy indicates another sync run is already in progress.
	ErrSyncBusy = errors.New("sync already running")
)
