package engine

import "errors"

// None of these are fatal; callers log them and carry on.
var (
	// ErrStaleResponse is a response whose id is not the latest issued for its slot.
	ErrStaleResponse = errors.New("engine: stale response")
	// ErrWindowMismatch is a current response whose data does not cover the requested window.
	ErrWindowMismatch = errors.New("engine: response does not match requested window")
	// ErrDisconnected means no request was made because the target is not connected.
	ErrDisconnected = errors.New("engine: target not connected")
	// ErrEditWhileStale rejects an edit while the view has a request outstanding.
	ErrEditWhileStale = errors.New("engine: edit rejected while request outstanding")
	ErrEditOutOfRange = errors.New("engine: edit offset outside snapshot")
	ErrUnknownSlot    = errors.New("engine: no view for slot")

	ErrUnresolvedExpression = errors.New("engine: expression did not resolve")
	ErrNotAGridView         = errors.New("engine: view has no address grid")
	// ErrNoPointer means the cursor is not over a complete long to follow.
	ErrNoPointer = errors.New("engine: no long under cursor")
	// ErrInvalidGeometry rejects a window or grid shape before anything is requested.
	ErrInvalidGeometry = errors.New("engine: invalid window geometry")
)
