package skc

import "errors"

var (
	// ErrUnknownAnchor: the store never produced the requested anchor, e.g. a
	// packet references a future or foreign anchor not yet synchronized.
	ErrUnknownAnchor = errors.New("skc: unknown anchor")
	// ErrNotFound: the concept hash is not visible under the snapshot's anchor.
	ErrNotFound = errors.New("skc: concept not found")
	// ErrUnknownProposal: the proposal id is stale or already resolved. This
	// is a caller programming error, not a data-integrity issue.
	ErrUnknownProposal = errors.New("skc: unknown proposal")
	// ErrEmptyDefinition: a concept definition must be non-empty to be
	// content-addressed.
	ErrEmptyDefinition = errors.New("skc: empty definition")
	// ErrClosed: the store's writer has been shut down.
	ErrClosed = errors.New("skc: store closed")
)

// IsNotFound reports whether err is ErrNotFound or ErrUnknownAnchor, the two
// recoverable resolution outcomes.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownAnchor)
}
