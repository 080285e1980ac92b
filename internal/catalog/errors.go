package catalog

import "github.com/cockroachdb/errors"

var (
	// ErrUnrecognizedLabel reports a registration label outside the
	// catalog's recognized names.
	ErrUnrecognizedLabel = errors.New("label not recognized by catalog")

	// ErrUnrecognizedExtension reports a file extension outside the
	// catalog's recognized extensions.
	ErrUnrecognizedExtension = errors.New("extension not recognized by catalog")

	// ErrAllocationExhausted reports repeated filename collisions during
	// allocation.
	ErrAllocationExhausted = errors.New("cannot allocate a fresh filename")

	// ErrCorruptCatalog reports a sidecar that fails structural
	// validation.
	ErrCorruptCatalog = errors.New("catalog sidecar is corrupt")

	// ErrCatalogNotFound reports a directory with no sidecar.
	ErrCatalogNotFound = errors.New("no catalog sidecar found")

	// ErrDuplicateEntry reports a registration whose canonical key is
	// already taken.
	ErrDuplicateEntry = errors.New("entry already registered for parameters")

	// ErrEntryNotFound reports a lookup or removal with no matching
	// entry.
	ErrEntryNotFound = errors.New("no entry for parameters")

	// ErrLockTimeout reports failure to acquire the catalog lock within
	// the configured timeout.
	ErrLockTimeout = errors.New("timed out waiting for catalog lock")
)
