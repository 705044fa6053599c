package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

type methodFunc func(ctx context.Context, params json.RawMessage) (any, error)

type method struct {
	fn       methodFunc
	readOnly bool
}

type methodTable map[string]method

// readOnlyMethods never consume the rejection flag.
var readOnlyMethods = []string{MethodGetAddresses, MethodStxGetAddresses, MethodWalletConnect}

// SupportedMethods lists every method the wallet answers, sorted.
func SupportedMethods() []string {
	m := []string{
		MethodGetAddresses,
		MethodStxGetAddresses,
		MethodWalletConnect,
		MethodTransferStx,
		MethodCallContract,
		MethodSignMessage,
		MethodSignMessageAlias,
		MethodSignStructuredMessage,
		MethodSignTransaction,
	}
	slices.Sort(m)
	return m
}

func (h *Handler) newMethodTable() (methodTable, error) {
	t := methodTable{
		MethodGetAddresses:          {fn: h.getAddresses},
		MethodStxGetAddresses:       {fn: h.getAddresses},
		MethodWalletConnect:         {fn: h.getAddresses},
		MethodTransferStx:           {fn: h.transferStx},
		MethodCallContract:          {fn: h.callContract},
		MethodSignMessage:           {fn: h.signMessage},
		MethodSignMessageAlias:      {fn: h.signMessage},
		MethodSignStructuredMessage: {fn: h.signStructuredMessage},
		MethodSignTransaction:       {fn: h.signTransaction},
	}
	for _, name := range readOnlyMethods {
		m, ok := t[name]
		if !ok {
			return nil, fmt.Errorf("read-only method %s has no handler", name)
		}
		m.readOnly = true
		t[name] = m
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate checks that the table binds exactly the supported methods.
func (t methodTable) validate() error {
	supported := SupportedMethods()
	for _, name := range supported {
		m, ok := t[name]
		if !ok || m.fn == nil {
			return fmt.Errorf("method %s has no handler", name)
		}
	}
	if len(t) != len(supported) {
		for name := range t {
			if !slices.Contains(supported, name) {
				return fmt.Errorf("method %s is not a supported wallet method", name)
			}
		}
	}
	return nil
}

// decodeParams unmarshals params into v. Missing params decode as {}.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
