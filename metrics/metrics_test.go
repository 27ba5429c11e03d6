package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.RoomCreated()
	m.RoomCreated()
	m.RoomsRemoved(1)
	m.HistoryEvicted()
	m.FramesDropped(3)
	m.FrameReceived("draw")
	m.FrameReceived("draw")
	m.FrameReceived("chat")
	m.FrameRejected("bad_request")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.sessions))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rooms))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.historyEvicted))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.dropped))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.frames.WithLabelValues("draw")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.frames.WithLabelValues("chat")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejected.WithLabelValues("bad_request")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SessionOpened()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "scribbl_sessions_active 1")
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
