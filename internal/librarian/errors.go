package librarian

import "github.com/cockroachdb/errors"

var (
	// ErrNoManifest reports a project root without a librarian.yaml.
	ErrNoManifest = errors.New("no project manifest found")

	// ErrInvalidManifest reports a manifest that fails validation.
	ErrInvalidManifest = errors.New("invalid project manifest")
)
