package netutil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const MaxUserAgentLength = 512

// NormalizeIP accepts "ip", "ip:port" or "[ipv6]:port" and returns the bare
// address without zone. ok is false when no address could be parsed.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	candidates := []string{raw}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		candidates = append(candidates, host)
	} else if strings.HasPrefix(raw, "[") {
		if end := strings.Index(raw, "]"); end > 0 {
			candidates = append(candidates, raw[1:end])
		}
	}
	for _, c := range candidates {
		if addr, err := netip.ParseAddr(c); err == nil {
			return addr.WithZone("").Unmap().String(), true
		}
	}
	return raw, false
}

// ClientIP reads the peer address. When the router runs behind a trusted
// proxy, chi's RealIP middleware has already rewritten RemoteAddr.
func ClientIP(r *http.Request) string {
	if ip, ok := NormalizeIP(r.RemoteAddr); ok {
		return ip
	}
	return ""
}

// TruncateUserAgent trims ua to MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	n := 0
	for i := range ua {
		if n == MaxUserAgentLength {
			return ua[:i]
		}
		n++
	}
	return ua
}
