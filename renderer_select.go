package glyphfield

import (
	"errors"
	"fmt"
)

// RendererName identifies a concrete renderer module.
type RendererName string

const (
	RendererWGPU     RendererName = "wgpu"
	RendererTerminal RendererName = "terminal"
	RendererHeadless RendererName = "headless"
)

// rendererOpener checks the host for one renderer and returns the module that
// installs it. Detection failures wrap ErrCapabilityUnavailable.
type rendererOpener func(cfg Config, log Logger) (Module, error)

var rendererOpeners = map[RendererName]rendererOpener{
	RendererWGPU:     openMorphRt,
	RendererTerminal: openTerminal,
	RendererHeadless: openHeadless,
}

func knownRenderer(name RendererName) bool {
	_, ok := rendererOpeners[name]
	return ok
}

// openRenderer tries the configured renderer, then the fallback. The error
// joins every detection failure.
func openRenderer(cfg Config, log Logger) (RendererName, Module, error) {
	names := []RendererName{cfg.Renderer}
	if cfg.Fallback != "" && cfg.Fallback != cfg.Renderer {
		names = append(names, cfg.Fallback)
	}

	var errs []error
	for _, name := range names {
		mod, err := rendererOpeners[name](cfg, log)
		if err == nil {
			return name, mod, nil
		}
		log.Warnf("Renderer %s unavailable: %v", name, err)
		errs = append(errs, err)
	}
	return "", nil, errors.Join(errs...)
}

func capabilityError(name RendererName, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, name, err)
}
