package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generates new", incoming: ""},
		{name: "preserves existing", incoming: "clinic-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen string
			h := RequestID()(func(c echo.Context) error {
				seen, _ = c.Get(requestIDKey).(string)
				return c.String(http.StatusOK, "ok")
			})
			require.NoError(t, h(c))

			if tt.incoming == "" {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err, "generated ids are UUIDs")
			} else {
				assert.Equal(t, tt.incoming, seen)
			}
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/instruments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(requestIDKey, "rid-1")

	var ctxLogger *zerolog.Logger
	h := Logger(logger)(func(c echo.Context) error {
		ctxLogger = zerolog.Ctx(c.Request().Context())
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})
	require.NoError(t, h(c), "errors are handled inside the middleware")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, ctxLogger)
	assert.NotEqual(t, zerolog.Disabled, ctxLogger.GetLevel(), "handlers see a request-scoped logger")
	assert.Contains(t, logs.String(), `"request_id":"rid-1"`)
	assert.Contains(t, logs.String(), `"status":404`)
	assert.Contains(t, logs.String(), `"path":"/v1/instruments"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	var logs bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Recovery(zerolog.New(&logs))(func(echo.Context) error {
		panic("boom")
	})
	err := h(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), "boom")
}
