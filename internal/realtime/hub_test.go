package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, func()) {
	t.Helper()
	h := NewHub([]string{"*"})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))

	stop := func() {
		cancel()
		<-stopped
		srv.Close()
	}
	return h, srv, stop
}

func dial(t *testing.T, srv *httptest.Server, trackingNumber string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + trackingNumber
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHubDeliversToMatchingSubscribersOnly(t *testing.T) {
	defer goleak.VerifyNone(t)

	h, srv, stop := startHub(t)
	defer stop()

	a := dial(t, srv, "ctc260101abcdef")
	defer a.Close()
	b := dial(t, srv, "CTC999999ZZZZZZ")
	defer b.Close()

	require.Eventually(t, func() bool {
		return h.Subscribers("CTC260101ABCDEF") == 1 && h.Subscribers("CTC999999ZZZZZZ") == 1
	}, 2*time.Second, 10*time.Millisecond)

	lat, lon := 6.95, 79.84
	h.Broadcast("CTC260101ABCDEF", domain.TrackingUpdate{
		Status:     domain.ShipmentAtPort,
		Location:   "Port of Colombo",
		Latitude:   &lat,
		Longitude:  &lon,
		OccurredAt: time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC),
	})

	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := a.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "tracking_update", msg.Type)
	assert.Equal(t, "at_port", msg.Status)
	assert.Equal(t, "Port of Colombo", msg.Location)
	require.NotNil(t, msg.Latitude)
	assert.InDelta(t, 6.95, *msg.Latitude, 1e-9)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = b.ReadMessage()
	assert.Error(t, err)
}

func TestHubForgetsDisconnectedSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	h, srv, stop := startHub(t)
	defer stop()

	c := dial(t, srv, "CTC260101ABCDEF")
	require.Eventually(t, func() bool { return h.Subscribers("CTC260101ABCDEF") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return h.Subscribers("CTC260101ABCDEF") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastAfterStopDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	h, _, stop := startHub(t)
	stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Broadcast("CTC1", domain.TrackingUpdate{Status: domain.ShipmentInTransit})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after hub stopped")
	}
	assert.Equal(t, 0, h.Subscribers("CTC1"))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://portal.example.com"})

	r := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://portal.example.com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))
}
