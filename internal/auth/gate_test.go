package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/pkg/errorbank"
)

func newGate() *Gate {
	return NewGate(config.Config{Auth: config.Auth{Passcode: "letmein"}}, zap.NewNop())
}

func TestGate_Check(t *testing.T) {
	g := newGate()

	assert.NoError(t, g.Check("letmein"))
	assert.True(t, errorbank.Is(g.Check(""), errorbank.KindUnauthorized))
	assert.True(t, errorbank.Is(g.Check("letmeout"), errorbank.KindUnauthorized))
	assert.True(t, errorbank.Is(g.Check("letmein "), errorbank.KindUnauthorized))
}

func TestGate_Middleware(t *testing.T) {
	e := echo.New()
	e.GET("/secret", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, newGate().Middleware())

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "missing", target: "/secret", want: http.StatusUnauthorized},
		{name: "wrong header", target: "/secret", header: "nope", want: http.StatusUnauthorized},
		{name: "header", target: "/secret", header: "letmein", want: http.StatusOK},
		{name: "query", target: "/secret?passcode=letmein", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(HeaderPasscode, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
