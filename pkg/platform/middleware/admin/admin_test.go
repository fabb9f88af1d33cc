package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name     string
		expected string
		header   string
		want     int
	}{
		{name: "matching token passes", expected: "s3cret", header: "s3cret", want: http.StatusNoContent},
		{name: "wrong token rejected", expected: "s3cret", header: "nope", want: http.StatusUnauthorized},
		{name: "missing token rejected", expected: "s3cret", header: "", want: http.StatusUnauthorized},
		{name: "unconfigured token rejects everything", expected: "", header: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAdminToken(tt.expected, logger)(ok)
			req := httptest.NewRequest(http.MethodPost, "/admin/pools/0x1/rule", nil)
			if tt.header != "" {
				req.Header.Set(HeaderAdminToken, tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
