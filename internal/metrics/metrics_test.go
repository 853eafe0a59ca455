package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldscape/server/internal/net/packet"
)

func TestObserverCounters(t *testing.T) {
	m := New()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.PacketDecoded(packet.TypeKeepAlive)
	m.PacketDecoded(packet.TypeKeepAlive)
	m.PacketEncoded(packet.TypeGameMessage)
	m.LoginResult("accepted")
	m.SetPlayers(3)
	m.ObserveTick(2 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.packets.WithLabelValues("in", packet.TypeKeepAlive.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.packets.WithLabelValues("out", packet.TypeGameMessage.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("accepted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.players))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.LoginResult(packet.RejectServerFull.String())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "oldscape_net_logins_total"))
	assert.True(t, strings.Contains(body, packet.TypeLoginServerFull.String()))
}
