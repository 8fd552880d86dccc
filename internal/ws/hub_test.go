package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/Vasu1712/scenyx-collab/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockClient creates a client without an actual websocket connection
func newMockClient(hub *Hub, id string, buffer int) *Client {
	c := NewClient(hub, nil, id, ClientConfig{SendBuffer: buffer}, newTestLogger())
	hub.Register(c)
	return c
}

func drain(c *Client) []models.Envelope {
	var out []models.Envelope
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var env models.Envelope
			json.Unmarshal(data, &env)
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 8)
	b := newMockClient(hub, "b", 8)
	c := newMockClient(hub, "c", 8)
	for _, id := range []string{"a", "b", "c"} {
		hub.JoinRoom(id, "p1")
	}

	hub.Broadcast("p1", models.EventObjectChanged, map[string]string{"id": "obj1"}, "a")

	if got := drain(a); len(got) != 0 {
		t.Fatalf("excluded connection received %v", got)
	}
	for _, cl := range []*Client{b, c} {
		got := drain(cl)
		if len(got) != 1 || got[0].Event != models.EventObjectChanged {
			t.Fatalf("client %s received %v", cl.ID, got)
		}
	}
}

func TestBroadcastWithoutExclusionReachesAll(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 8)
	b := newMockClient(hub, "b", 8)
	hub.JoinRoom("a", "p1")
	hub.JoinRoom("b", "p1")

	hub.Broadcast("p1", models.EventUserJoined, nil, "")

	if len(drain(a)) != 1 || len(drain(b)) != 1 {
		t.Fatal("expected every member to receive exactly one message")
	}
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 8)
	b := newMockClient(hub, "b", 8)
	hub.JoinRoom("a", "p1")
	hub.JoinRoom("b", "p2")

	hub.Broadcast("p1", models.EventChatMessage, nil, "")

	if len(drain(a)) != 1 {
		t.Error("member of p1 should receive the message")
	}
	if len(drain(b)) != 0 {
		t.Error("member of p2 must not receive a p1 message")
	}
}

func TestBroadcastPreservesOrderPerConnection(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 16)
	hub.JoinRoom("a", "p1")

	for i := 0; i < 10; i++ {
		hub.Broadcast("p1", models.EventCursorMoved, models.CursorMove{X: float64(i)}, "")
	}

	got := drain(a)
	if len(got) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(got))
	}
	for i, env := range got {
		var cm models.CursorMove
		json.Unmarshal(env.Data, &cm)
		if cm.X != float64(i) {
			t.Fatalf("message %d out of order: %+v", i, cm)
		}
	}
}

func TestSlowClientDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(newTestLogger())
	slow := newMockClient(hub, "slow", 1)
	fast := newMockClient(hub, "fast", 8)
	hub.JoinRoom("slow", "p1")
	hub.JoinRoom("fast", "p1")

	hub.Broadcast("p1", models.EventCursorMoved, nil, "")
	hub.Broadcast("p1", models.EventCursorMoved, nil, "")

	if got := drain(fast); len(got) != 2 {
		t.Fatalf("fast client expected 2 messages, got %d", len(got))
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("slow client should have been dropped, clients=%d", hub.ClientCount())
	}
	if hub.RoomSize("p1") != 1 {
		t.Fatalf("slow client should have left the room, size=%d", hub.RoomSize("p1"))
	}
	drain(slow)
	if _, ok := <-slow.Send; ok {
		t.Fatal("slow client's send channel should be closed")
	}
}

func TestSendToConnection(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 8)
	b := newMockClient(hub, "b", 8)

	hub.SendToConnection("a", models.EventError, models.ErrorEvent{Message: "boom", Type: "object-change"})
	hub.SendToConnection("missing", models.EventError, nil)

	got := drain(a)
	if len(got) != 1 || got[0].Event != models.EventError {
		t.Fatalf("unexpected messages %v", got)
	}
	var ev models.ErrorEvent
	json.Unmarshal(got[0].Data, &ev)
	if ev.Type != "object-change" {
		t.Errorf("unexpected error payload %+v", ev)
	}
	if len(drain(b)) != 0 {
		t.Error("unicast must not reach other connections")
	}
}

func TestUnregisterLeavesRoomsAndIsIdempotent(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 8)
	hub.JoinRoom("a", "p1")
	hub.JoinRoom("a", "p2")

	hub.Unregister(a)
	hub.Unregister(a)

	if hub.RoomSize("p1") != 0 || hub.RoomSize("p2") != 0 || hub.ClientCount() != 0 {
		t.Fatal("unregistered client still tracked")
	}
	hub.Broadcast("p1", models.EventChatMessage, nil, "")
}

type recordingSession struct {
	events []string
}

func (s *recordingSession) Handle(_ context.Context, event string, _ json.RawMessage) {
	s.events = append(s.events, event)
}

func (s *recordingSession) Close(context.Context) {}

func TestDispatchRejectsMalformedFrames(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 8)
	session := &recordingSession{}

	a.dispatch(context.Background(), session, []byte("not json"))
	a.dispatch(context.Background(), session, []byte(`{"event":"cursor-move","data":{"x":1,"y":2}}`))

	if len(session.events) != 1 || session.events[0] != models.EventCursorMove {
		t.Fatalf("unexpected dispatched events %v", session.events)
	}
	got := drain(a)
	if len(got) != 1 || got[0].Event != models.EventError {
		t.Fatalf("expected one error frame, got %v", got)
	}
}

func TestDispatchRateLimits(t *testing.T) {
	hub := NewHub(newTestLogger())
	c := NewClient(hub, nil, "a", ClientConfig{SendBuffer: 8, MessageRate: 0.001, MessageBurst: 2}, newTestLogger())
	hub.Register(c)
	session := &recordingSession{}

	for i := 0; i < 5; i++ {
		c.dispatch(context.Background(), session, []byte(`{"event":"cursor-move"}`))
	}
	if len(session.events) != 2 {
		t.Fatalf("expected burst of 2 to pass, got %d", len(session.events))
	}
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:5173"}
	if !originAllowed("", allowed) {
		t.Error("missing origin should be allowed")
	}
	if !originAllowed("http://localhost:5173", allowed) {
		t.Error("listed origin should be allowed")
	}
	if originAllowed("http://evil.example", allowed) {
		t.Error("unlisted origin should be rejected")
	}
	if !originAllowed("http://any.example", []string{"*"}) {
		t.Error("wildcard should allow any origin")
	}
}

func TestCloseAllClosesEverySendChannel(t *testing.T) {
	hub := NewHub(newTestLogger())
	a := newMockClient(hub, "a", 4)
	b := newMockClient(hub, "b", 4)
	hub.JoinRoom("a", "p1")

	hub.CloseAll()

	for _, c := range []*Client{a, b} {
		if _, ok := <-c.Send; ok {
			t.Errorf("client %s send channel still open", c.ID)
		}
	}
	if hub.ClientCount() != 0 || hub.RoomSize("p1") != 0 {
		t.Fatalf("hub not empty: clients=%d room=%d", hub.ClientCount(), hub.RoomSize("p1"))
	}
}
