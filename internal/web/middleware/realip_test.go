package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted proxy keeps remote addr",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.5:4000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "203.0.113.5:4000",
		},
		{
			name:    "trusted proxy uses X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:    "198.51.100.7",
		},
		{
			name:    "trusted proxy uses first forwarded hop",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 10.1.2.3"},
			want:    "198.51.100.7",
		},
		{
			name:    "bare address entry",
			trusted: []string{" 127.0.0.1 "},
			remote:  "127.0.0.1:5555",
			headers: map[string]string{"X-Real-IP": "2001:db8::1"},
			want:    "2001:db8::1",
		},
		{
			name:    "invalid header value is ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3:4000",
		},
		{
			name:    "invalid CIDR is skipped",
			trusted: []string{"bogus"},
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:    "10.1.2.3:4000",
		},
		{
			name:    "no trusted proxies",
			remote:  "10.1.2.3:4000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7"},
			want:    "10.1.2.3:4000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}
