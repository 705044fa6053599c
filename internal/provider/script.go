package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// BridgeFunctionName is the page function a browser driver exposes.
const BridgeFunctionName = "__walletsimRequest"

// ProductName is reported by getProductInfo and the wbip registry.
const ProductName = "walletsim"

// Bridge is a JavaScript expression that evaluates to a function taking
// the request envelope text and returning a promise of the response text.
type Bridge string

// ExposedFunctionBridge calls window.__walletsimRequest, installed with a
// driver's expose-function call.
func ExposedFunctionBridge() Bridge {
	return Bridge(`function (payload) {
    var fn = window.` + BridgeFunctionName + `;
    if (typeof fn !== 'function') {
      return Promise.reject(new Error('walletsim bridge ` + BridgeFunctionName + ` is not installed'));
    }
    return Promise.resolve(fn(payload));
  }`)
}

// HTTPBridge posts the envelope to url. text/plain keeps the request
// simple so browsers skip the CORS preflight.
func HTTPBridge(url string) Bridge {
	u, _ := json.Marshal(url)
	return Bridge(`function (payload) {
    return fetch(` + string(u) + `, {
      method: 'POST',
      headers: { 'Content-Type': 'text/plain' },
      body: payload
    }).then(function (r) { return r.text(); });
  }`)
}

var scriptTemplate = template.Must(template.New("provider").Parse(`(function () {
  'use strict';
  var ADDRESS = {{.Address}};
  var PUBLIC_KEY = {{.PublicKey}};
  var PRODUCT = {{.Product}};
  var bridge = {{.Bridge}};
  var listeners = {};

  function handleRequest(method, params) {
    var payload = JSON.stringify({ method: method, params: params || {} });
    return bridge(payload).then(function (text) {
      var response = JSON.parse(text);
      if (response.error) {
        var err = new Error(response.error.message || 'wallet request failed');
        err.code = typeof response.error.code === 'number' ? response.error.code : 4001;
        throw err;
      }
      return response;
    });
  }

  function request(method, params) {
    if (method && typeof method === 'object') {
      return handleRequest(method.method, method.params);
    }
    return handleRequest(method, params);
  }

  function addListener(event, cb) {
    (listeners[event] = listeners[event] || []).push(cb);
    return function () {
      listeners[event] = (listeners[event] || []).filter(function (l) { return l !== cb; });
    };
  }

  var mockProvider = {
    request: request,
    addListener: addListener,
    isConnected: function () { return true; },
    getProductInfo: function () {
      return Promise.resolve({ name: PRODUCT, icon: '', version: {{.Version}} });
    },
    signMultipleTransactions: undefined,
    createRepeatInscriptions: undefined,
    disconnect: function () {}
  };

  function define(name, value) {
    Object.defineProperty(window, name, { value: value, writable: false, configurable: true });
  }
  define('StacksProvider', mockProvider);
  define('LeatherProvider', mockProvider);
  define('HiroWalletProvider', mockProvider);
  define('XverseProviders', { StacksProvider: mockProvider, BitcoinProvider: mockProvider });

  window.wbip_providers = window.wbip_providers || [];
  window.wbip_providers.push(
    { id: 'LeatherProvider', name: PRODUCT + ' (Leather)', icon: '', webUrl: '' },
    { id: 'XverseProviders.BitcoinProvider', name: PRODUCT + ' (Xverse)', icon: '', webUrl: '' }
  );

  ['leather:ready', 'hiro:ready', 'stacksprovider:ready'].forEach(function (name) {
    window.dispatchEvent(new Event(name));
  });
  console.log('[walletsim] provider injected for ' + ADDRESS + ' (' + PUBLIC_KEY.slice(0, 10) + '...)');
})();
`))

// ProviderVersion is reported by getProductInfo.
const ProviderVersion = "2.0.0"

// Script renders the injection script for an identity and bridge.
func Script(address, publicKey string, bridge Bridge) (string, error) {
	jsString := func(s string) (string, error) {
		b, err := json.Marshal(s)
		return string(b), err
	}
	data := struct {
		Address, PublicKey, Product, Version, Bridge string
	}{Bridge: string(bridge)}
	var err error
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&data.Address, address},
		{&data.PublicKey, publicKey},
		{&data.Product, ProductName},
		{&data.Version, ProviderVersion},
	} {
		if *f.dst, err = jsString(f.src); err != nil {
			return "", fmt.Errorf("encode script constant: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render provider script: %w", err)
	}
	return buf.String(), nil
}

// Script renders the injection script for this wallet.
func (h *Handler) Script(bridge Bridge) (string, error) {
	return Script(h.identity.Address, h.identity.PublicKey, bridge)
}
