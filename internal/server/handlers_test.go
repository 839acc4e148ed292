package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/internal/store"
	"github.com/huangsam/scorechart/schema"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(st contract.ObservationStore) *Server {
	cfg := &contract.Config{Now: testNow, Workers: 2}
	return New(cfg, core.DefaultRegistry(), st, zerolog.Nop())
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("without store", func(t *testing.T) {
		rec := serve(newTestServer(nil), http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	})

	t.Run("store reachable", func(t *testing.T) {
		st := new(store.MockObservationStore)
		st.On("GetStatus").Return(schema.StoreStatus{Backend: "sqlite", Connected: true, TotalRows: 12}, nil)

		rec := serve(newTestServer(st), http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
		st.AssertExpectations(t)
	})

	t.Run("store failing", func(t *testing.T) {
		st := new(store.MockObservationStore)
		st.On("GetStatus").Return(schema.StoreStatus{}, errors.New("connection refused"))

		rec := serve(newTestServer(st), http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "degraded")
	})
}

func TestInstruments(t *testing.T) {
	rec := serve(newTestServer(nil), http.MethodGet, "/v1/instruments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, len(core.DefaultRegistry().IDs()))
}

func TestComposeChart(t *testing.T) {
	body := `{"instrument":"PHQ9","points":[
		{"date":"2024-01-10","value":18,"source":"epic","meaning":"Moderately severe"},
		{"date":"2024-03-05","value":4,"source":"cnics"},
		{"value":7}
	]}`

	tests := []struct {
		name         string
		target       string
		body         string
		expectedCode int
		check        func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:         "json description",
			target:       "/v1/charts",
			body:         body,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var desc schema.ChartDescription
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
				assert.Equal(t, "PHQ-9 Depression", desc.Title)
				require.Len(t, desc.Series, 1)
				assert.Len(t, desc.Series[0].Points, 2)
			},
		},
		{
			name:         "csv rows",
			target:       "/v1/charts?format=csv",
			body:         body,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
				lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
				assert.Len(t, lines, 3)
				assert.True(t, strings.HasPrefix(lines[0], "instrument,series,field"))
			},
		},
		{
			name:         "html preview",
			target:       "/v1/charts?format=html",
			body:         body,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
				assert.Contains(t, rec.Body.String(), "echarts")
			},
		},
		{
			name:         "empty points",
			target:       "/v1/charts",
			body:         `{"instrument":"gad7","points":[]}`,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var desc schema.ChartDescription
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
				assert.True(t, desc.Empty)
				assert.Equal(t, core.EmptyChartMessage, desc.EmptyMessage)
			},
		},
		{name: "unknown instrument", target: "/v1/charts", body: `{"instrument":"bdi","points":[]}`, expectedCode: http.StatusNotFound},
		{name: "missing instrument", target: "/v1/charts", body: `{"points":[]}`, expectedCode: http.StatusBadRequest},
		{name: "malformed body", target: "/v1/charts", body: `{"instrument":`, expectedCode: http.StatusBadRequest},
		{name: "width out of range", target: "/v1/charts", body: `{"instrument":"phq9","width":50}`, expectedCode: http.StatusBadRequest},
		{name: "unsupported format", target: "/v1/charts?format=parquet", body: body, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestServer(nil), http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestTooltip(t *testing.T) {
	ts := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC).UnixMilli()

	t.Run("formats point", func(t *testing.T) {
		body := `{"tooltip":{"showSource":true,"seriesNames":["Alcohol"],"categories":{"0":"Never","4":"Daily"}},
			"payload":{"seriesIndex":0,"point":{"timestamp":` + jsonNumber(ts) + `,"value":4,"source":"cnics"}}}`
		rec := serve(newTestServer(nil), http.MethodPost, "/v1/tooltip", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var content schema.TooltipContent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
		assert.Equal(t, "Jan 10, 2024", content.Date)
		assert.Equal(t, "Daily", content.Value)
		assert.Equal(t, "CNICS", content.Source)
		assert.Equal(t, "Alcohol", content.Series)
	})

	t.Run("missing payload yields placeholders", func(t *testing.T) {
		rec := serve(newTestServer(nil), http.MethodPost, "/v1/tooltip", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var content schema.TooltipContent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
		assert.Equal(t, schema.Placeholder, content.Value)
	})
}

func TestPatientRoutes(t *testing.T) {
	ts := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	stored := []schema.DataPoint{{Timestamp: ts, Values: map[string]*float64{"value": schema.Float(85)}, Source: "epic"}}

	t.Run("chart from store", func(t *testing.T) {
		st := new(store.MockObservationStore)
		st.On("Points", mock.Anything, "p-1", "adherence").Return(stored, nil)

		rec := serve(newTestServer(st), http.MethodGet, "/v1/patients/p-1/charts/adherence", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var desc schema.ChartDescription
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
		require.Len(t, desc.Series, 1)
		assert.Equal(t, schema.SeverityAlert, desc.Series[0].Points[0].Severity, "adherence below 90 is an alert")
		st.AssertExpectations(t)
	})

	t.Run("unknown instrument", func(t *testing.T) {
		st := new(store.MockObservationStore)
		rec := serve(newTestServer(st), http.MethodGet, "/v1/patients/p-1/charts/bdi", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		st.AssertNotCalled(t, "Points", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store error", func(t *testing.T) {
		st := new(store.MockObservationStore)
		st.On("Points", mock.Anything, "p-1", "phq9").Return(nil, errors.New("timeout"))
		rec := serve(newTestServer(st), http.MethodGet, "/v1/patients/p-1/charts/phq9", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("dashboard", func(t *testing.T) {
		st := new(store.MockObservationStore)
		st.On("Instruments", mock.Anything, "p-1").Return([]string{"adherence", "phq9"}, nil)
		st.On("Points", mock.Anything, "p-1", "adherence").Return(stored, nil)
		st.On("Points", mock.Anything, "p-1", "phq9").Return([]schema.DataPoint(nil), nil)

		rec := serve(newTestServer(st), http.MethodGet, "/v1/patients/p-1/dashboard", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var charts []schema.DashboardChart
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charts))
		require.Len(t, charts, 2)
		assert.False(t, charts[0].Chart.Empty)
		assert.True(t, charts[1].Chart.Empty)
	})

	t.Run("record observations", func(t *testing.T) {
		st := new(store.MockObservationStore)
		st.On("Record", mock.Anything, "p-1", "phq9", mock.MatchedBy(func(points []schema.DataPoint) bool {
			return len(points) == 2
		})).Return(2, nil)

		body := `[{"date":"2024-01-10","value":12},{"date":"2024-02-10","value":null},{"value":3}]`
		rec := serve(newTestServer(st), http.MethodPost, "/v1/patients/p-1/observations/phq9", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"recorded":2,"dropped":1}`, rec.Body.String())
		st.AssertExpectations(t)
	})

	t.Run("no store configured", func(t *testing.T) {
		rec := serve(newTestServer(nil), http.MethodGet, "/v1/patients/p-1/dashboard", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRecoveredPanicReturns500(t *testing.T) {
	s := newTestServer(nil)
	s.echo.GET("/panic", func(echo.Context) error { panic("handler bug") })

	rec := serve(s, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
