package glyphfield

import "errors"

var (
	// ErrCapabilityUnavailable means the host cannot run the selected renderer.
	// The engine degrades instead of failing.
	ErrCapabilityUnavailable = errors.New("rendering capability unavailable")

	// ErrNoSurface means no renderer or output surface was configured.
	ErrNoSurface = errors.New("no render surface")

	ErrUnknownRenderer = errors.New("unknown renderer")
	ErrUnknownPreset   = errors.New("unknown preset")

	// ErrDestroyed is returned by Step after the engine has been destroyed.
	ErrDestroyed = errors.New("engine destroyed")
)
