package observe

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCall(t *testing.T) {
	m := New()

	m.ToolCall("read_csv", 10*time.Millisecond, nil)
	m.ToolCall("read_csv", 5*time.Millisecond, errors.New("boom"))
	m.ToolCall("read_csv", time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("read_csv", resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("read_csv", resultError)))
}

func TestPVGISRequest(t *testing.T) {
	m := New()
	m.PVGISRequest(time.Second, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.pvgisRequests.WithLabelValues(resultError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pvgisRequests.WithLabelValues(resultSuccess)))
}

func TestPreparedAndClients(t *testing.T) {
	m := New()
	m.Prepared(5, 20)
	m.Prepared(1, 4)
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	assert.Equal(t, 6.0, testutil.ToFloat64(m.rowsLoaded))
	assert.Equal(t, 24.0, testutil.ToFloat64(m.rowsReshaped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatClients))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ToolCall("x", 0, nil)
		m.PVGISRequest(0, nil)
		m.Prepared(1, 1)
		m.ClientConnected()
		m.ClientDisconnected()
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ToolCall("aggregate_csv", time.Millisecond, nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `energy_profile_tool_calls_total{result="success",tool="aggregate_csv"} 1`)
}
