package portrait

import "errors"

var (
	// ErrConfigurationMissing is returned by Trigger when the slot has no image.
	ErrConfigurationMissing = errors.New("no image configured for slot")

	// ErrDuplicateDelivery marks a Create for an id that is already active.
	// It never reaches callers; Create absorbs it.
	ErrDuplicateDelivery = errors.New("portrait already active")

	// ErrStaleMount is logged when the mount point has been detached and
	// must be re-acquired.
	ErrStaleMount = errors.New("mount point detached")

	// ErrNoMount is returned when the host cannot provide a mount point.
	ErrNoMount = errors.New("no mount point available")

	// ErrMalformedPayload is returned when a received event fails validation.
	ErrMalformedPayload = errors.New("malformed portrait payload")

	// ErrLoopClosed is returned by Call when the loop stopped before the
	// callback ran.
	ErrLoopClosed = errors.New("event loop closed")
)
