package relay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"keeperbridge/internal/domain"
	"keeperbridge/internal/relay"
)

func newHub(t *testing.T) (*relay.Hub, string) {
	t.Helper()
	hub := relay.NewHub(relay.HubOptions{PingInterval: 50 * time.Millisecond, PingTimeout: 200 * time.Millisecond})
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, srv.URL
}

func dial(t *testing.T, url string) domain.RelayTransport {
	t.Helper()
	c, err := relay.NewDialer(relay.Config{URL: url}).Dial(context.Background(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func recv(t *testing.T, c domain.RelayTransport) json.RawMessage {
	t.Helper()
	select {
	case msg := <-c.Inbound():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound message")
		return nil
	}
}

// scripted serves one websocket connection with a hand-written handshake
// and then runs script.
func scripted(t *testing.T, script func(ws *websocket.Conn)) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"x","upgrades":[],"pingInterval":25000,"pingTimeout":20000}`))
		if _, msg, err := ws.ReadMessage(); err != nil || string(msg) != "40" {
			return
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"y"}`))
		script(ws)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestHub_ForwardsToOtherMembers(t *testing.T) {
	hub, url := newHub(t)
	a := dial(t, url)
	b := dial(t, url)

	room := domain.RoomID("room-1")
	require.NoError(t, a.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: room}))
	require.NoError(t, b.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: room}))
	require.Eventually(t, func() bool { return hub.Members(room) == 2 }, 2*time.Second, 10*time.Millisecond)

	frame := domain.Frame{Room: room, Data: json.RawMessage(`"hello"`), Network: "bitcoin"}
	require.NoError(t, a.Emit(domain.EventChannelMessage, frame))

	require.JSONEq(t, `[{"requestData":"hello","network":"bitcoin"}]`, string(recv(t, b)))

	select {
	case msg := <-a.Inbound():
		t.Fatalf("sender received its own frame: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_MissingNetworkIsNull(t *testing.T) {
	hub, url := newHub(t)
	a := dial(t, url)
	b := dial(t, url)

	room := domain.RoomID("room-2")
	require.NoError(t, a.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: room}))
	require.NoError(t, b.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: room}))
	require.Eventually(t, func() bool { return hub.Members(room) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Emit(domain.EventChannelMessage, domain.Frame{Room: room, Data: json.RawMessage(`{"k":1}`)}))
	require.JSONEq(t, `[{"requestData":{"k":1},"network":null}]`, string(recv(t, a)))
}

func TestHub_RoomsAreIsolated(t *testing.T) {
	hub, url := newHub(t)
	a := dial(t, url)
	b := dial(t, url)

	require.NoError(t, a.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: "left"}))
	require.NoError(t, b.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: "right"}))
	require.Eventually(t, func() bool { return hub.Members("left") == 1 && hub.Members("right") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Emit(domain.EventChannelMessage, domain.Frame{Room: "left", Data: json.RawMessage(`1`)}))
	select {
	case msg := <-b.Inbound():
		t.Fatalf("frame crossed rooms: %s", msg)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestHub_LeavesRoomOnClose(t *testing.T) {
	hub, url := newHub(t)
	a := dial(t, url)

	require.NoError(t, a.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: "gone"}))
	require.Eventually(t, func() bool { return hub.Members("gone") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return hub.Members("gone") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_SurvivesPings(t *testing.T) {
	// Hub liveness is 250ms; staying connected well past it needs pongs.
	hub, url := newHub(t)
	a := dial(t, url)
	b := dial(t, url)
	require.NoError(t, a.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: "live"}))
	require.NoError(t, b.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: "live"}))
	require.Eventually(t, func() bool { return hub.Members("live") == 2 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(600 * time.Millisecond)

	require.NoError(t, a.Emit(domain.EventChannelMessage, domain.Frame{Room: "live", Data: json.RawMessage(`2`)}))
	require.JSONEq(t, `[{"requestData":2,"network":null}]`, string(recv(t, b)))
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	_, url := newHub(t)
	c, err := relay.NewDialer(relay.Config{URL: url}).Dial(context.Background(), time.Second)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.NoError(t, c.Err())

	select {
	case <-c.Done():
	default:
		t.Fatal("done not closed after Close")
	}

	err = c.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: "r"})
	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_IgnoresOtherEvents(t *testing.T) {
	url := scripted(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`42["SOMETHING_ELSE",{"x":1}]`))
		_ = ws.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`451-["CHANNEL_MESSAGE",{"_placeholder":true,"num":0}]`))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`42["CHANNEL_MESSAGE",{"requestData":"ok","network":null}]`))
		_, _, _ = ws.ReadMessage()
	})
	c := dial(t, url)
	require.JSONEq(t, `[{"requestData":"ok","network":null}]`, string(recv(t, c)))
}

func TestClient_ServerDisconnectEndsConnection(t *testing.T) {
	url := scripted(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`41`))
		time.Sleep(100 * time.Millisecond)
	})
	c := dial(t, url)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not end")
	}
	require.Error(t, c.Err())
}

func TestDial_RefusedNamespace(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"x","pingInterval":25000,"pingTimeout":20000}`))
		_, _, _ = ws.ReadMessage()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`44{"message":"nope"}`))
		_, _, _ = ws.ReadMessage()
	}))
	defer srv.Close()

	_, err := relay.NewDialer(relay.Config{URL: srv.URL}).Dial(context.Background(), 2*time.Second)
	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestDial_Timeout(t *testing.T) {
	release := make(chan struct{})
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		// Never send the open packet.
		<-release
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := relay.NewDialer(relay.Config{URL: srv.URL}).Dial(context.Background(), 100*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrConnectionTimeout)
	require.Less(t, time.Since(start), time.Second)
}

func TestDial_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := relay.NewDialer(relay.Config{URL: url}).Dial(context.Background(), time.Second)
	require.ErrorIs(t, err, domain.ErrTransport)
}
