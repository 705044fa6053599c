package provider

import (
	"context"
	"fmt"
)

// Page is the part of a browser driver needed to install the wallet.
type Page interface {
	// ExposeFunction makes fn callable from the page as window[name].
	ExposeFunction(name string, fn func(requestJSON string) string) error
	// AddInitScript runs script before any page script on every navigation.
	AddInitScript(script string) error
}

// Install exposes the bridge function on page and registers the
// injection script. The function must be exposed first so the script
// finds it on the earliest navigation. ctx bounds every bridged request.
func (h *Handler) Install(ctx context.Context, page Page) error {
	if err := page.ExposeFunction(BridgeFunctionName, func(requestJSON string) string {
		return h.HandleRequest(ctx, requestJSON)
	}); err != nil {
		return fmt.Errorf("expose %s: %w", BridgeFunctionName, err)
	}
	script, err := h.Script(ExposedFunctionBridge())
	if err != nil {
		return err
	}
	if err := page.AddInitScript(script); err != nil {
		return fmt.Errorf("add provider script: %w", err)
	}
	h.logger.Debug().Msg("provider installed")
	return nil
}
