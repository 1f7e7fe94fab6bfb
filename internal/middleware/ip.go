package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
)

// Proxy headers in precedence order. CF-Connecting-IP wins because the
// CDN sits in front of any other proxy we trust.
var proxyIPHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// forwardedClientIP resolves the caller's address when the server runs
// behind a trusted proxy. A header value that is private or does not
// parse is treated as spoofed and skipped.
func forwardedClientIP(r *http.Request) string {
	for _, header := range proxyIPHeaders {
		candidate := strings.TrimSpace(r.Header.Get(header))
		if candidate == "" {
			continue
		}

		// X-Forwarded-For may carry a hop list; the client is first.
		candidate, _, _ = strings.Cut(candidate, ",")
		candidate = strings.TrimSpace(candidate)

		ip := net.ParseIP(candidate)
		if ip == nil || isPrivateIP(ip) {
			continue
		}
		return candidate
	}

	return remoteAddrIP(r)
}

// remoteAddrIP extracts the peer address of the TCP connection itself.
// Returns "" when RemoteAddr is not a usable IP.
func remoteAddrIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	host = strings.TrimSpace(host)
	if net.ParseIP(host) == nil {
		return ""
	}
	return host
}

var privateIPBlocks = sync.OnceValue(func() []*net.IPNet {
	cidrs := []string{
		"127.0.0.0/8",    // loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918
		"192.168.0.0/16", // RFC1918
		"::1/128",        // v6 loopback
		"fc00::/7",       // v6 unique local
		"fe80::/10",      // v6 link-local
	}

	blocks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		if _, block, err := net.ParseCIDR(cidr); err == nil {
			blocks = append(blocks, block)
		}
	}
	return blocks
})

func isPrivateIP(ip net.IP) bool {
	for _, block := range privateIPBlocks() {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
