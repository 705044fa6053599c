package rpc

import (
	"net/http"
	"net/netip"
	"slices"

	"github.com/Klingon-tech/walletsim/config"
	klog "github.com/Klingon-tech/walletsim/internal/log"
)

// access is the per-request policy shared by every route.
type access struct {
	clients []netip.Prefix // empty allows every client
	origins []string       // empty sends no CORS headers
}

func newAccess(cfg config.RPCConfig) access {
	return access{clients: parseAllowedIPs(cfg.AllowedIPs), origins: cfg.CORSOrigins}
}

// parseAllowedIPs accepts CIDR prefixes and bare addresses. Entries that
// are neither are logged and skipped.
func parseAllowedIPs(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		klog.RPC.Warn().Str("entry", e).Msg("Ignoring invalid rpc-allowed entry")
	}
	return out
}

func (a access) clientAllowed(remoteAddr string) bool {
	if len(a.clients) == 0 {
		return true
	}
	ap, err := netip.ParseAddrPort(remoteAddr)
	if err != nil {
		return false
	}
	ip := ap.Addr().Unmap()
	return slices.ContainsFunc(a.clients, func(p netip.Prefix) bool { return p.Contains(ip) })
}

// cors sets the CORS response headers when origin is allowed.
func (a access) cors(h http.Header, origin string) {
	if origin == "" || len(a.origins) == 0 {
		return
	}
	switch {
	case slices.Contains(a.origins, "*"):
		h.Set("Access-Control-Allow-Origin", "*")
	case slices.Contains(a.origins, origin):
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	default:
		return
	}
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// filter wraps next with the client allow-list and CORS, and answers
// preflight requests itself.
func (a access) filter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.clientAllowed(r.RemoteAddr) {
			klog.RPC.Debug().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("client not allowed")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a.cors(w.Header(), r.Header.Get("Origin"))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
