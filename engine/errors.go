package engine

import "errors"

var (
	ErrUnknownEventCode = errors.New("unknown event code")
	ErrMalformedEvent   = errors.New("malformed event")
	ErrUnencodableEvent = errors.New("event kind cannot be encoded")

	ErrIDSignMismatch = errors.New("entity id sign does not match its local flag")
	ErrIDInUse        = errors.New("entity id already registered")

	ErrSceneNotReady  = errors.New("scene has not fired ready")
	ErrSceneDestroyed = errors.New("scene destroyed")
)
