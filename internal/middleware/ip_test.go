package middleware

import (
	"net/http"
	"testing"
)

func TestForwardedClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "no proxy headers falls back to remote addr",
			remote: "203.0.113.7:51204",
			want:   "203.0.113.7",
		},
		{
			name:    "cdn header wins over forwarded-for",
			headers: map[string]string{"CF-Connecting-IP": "198.51.100.4", "X-Forwarded-For": "192.0.2.10, 192.0.2.11"},
			remote:  "203.0.113.7:51204",
			want:    "198.51.100.4",
		},
		{
			name:    "forwarded-for uses first hop",
			headers: map[string]string{"X-Forwarded-For": "192.0.2.10, 192.0.2.11"},
			remote:  "203.0.113.7:51204",
			want:    "192.0.2.10",
		},
		{
			name:    "padded header values are trimmed",
			headers: map[string]string{"X-Forwarded-For": "  192.0.2.10 ,  192.0.2.11 "},
			remote:  "203.0.113.7:51204",
			want:    "192.0.2.10",
		},
		{
			name:    "garbage in higher-precedence header skips to the next",
			headers: map[string]string{"CF-Connecting-IP": "not-an-ip", "X-Forwarded-For": "192.0.2.10"},
			remote:  "203.0.113.7:51204",
			want:    "192.0.2.10",
		},
		{
			name:    "private address in header is treated as spoofed",
			headers: map[string]string{"CF-Connecting-IP": "10.1.2.3"},
			remote:  "203.0.113.7:51204",
			want:    "203.0.113.7",
		},
		{
			name:   "remote addr without port",
			remote: "203.0.113.7",
			want:   "203.0.113.7",
		},
		{
			name:   "unparseable remote addr yields empty",
			remote: "worker-3.internal",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := forwardedClientIP(req); got != tt.want {
				t.Errorf("forwardedClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
