package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/classifier"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/events"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/hub"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/reaper"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/registry"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/room"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/service"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/session"
	"github.com/weiawesome/wes-support-chat/pkg/pubsub"
)

// frame is a superset of every outbound frame.
type frame struct {
	Type        string          `json:"type"`
	SessionID   string          `json:"session_id"`
	AnonymousID string          `json:"anonymous_id"`
	RoomID      string          `json:"room_id"`
	OldRoom     string          `json:"old_room"`
	NewRoom     string          `json:"new_room"`
	Room        domain.RoomInfo `json:"room"`
	Raw         json.RawMessage `json:"message"`
}

func (f frame) message(t *testing.T) domain.Message {
	t.Helper()
	var m domain.Message
	require.NoError(t, json.Unmarshal(f.Raw, &m))
	return m
}

func (f frame) notice(t *testing.T) domain.Notice {
	t.Helper()
	var n domain.Notice
	require.NoError(t, json.Unmarshal(f.Raw, &n))
	return n
}

type stubClassifier struct {
	mu  sync.Mutex
	fn  func(ctx context.Context, text string) (classifier.Result, error)
	got []classifier.Context
}

func (s *stubClassifier) Classify(ctx context.Context, text string, c classifier.Context) (classifier.Result, error) {
	s.mu.Lock()
	s.got = append(s.got, c)
	fn := s.fn
	s.mu.Unlock()
	if fn == nil {
		return classifier.Result{
			PrimaryEmotion: classifier.EmotionNeutral,
			Intensity:      classifier.LevelLow,
			CrisisLevel:    classifier.LevelLow,
			SuggestedRooms: []string{room.GeneralSupport},
			Reply:          "I'm here to listen.",
		}, nil
	}
	return fn(ctx, text)
}

func (s *stubClassifier) set(fn func(ctx context.Context, text string) (classifier.Result, error)) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func crisisResult() classifier.Result {
	return classifier.Result{
		PrimaryEmotion:     "sadness",
		Intensity:          classifier.LevelHigh,
		CrisisLevel:        classifier.LevelEmergency,
		CrisisType:         "suicidal",
		Indicators:         []string{"end my life"},
		SuggestedRooms:     []string{room.CrisisIntervention},
		Reply:              "Please reach out right now.",
		RequiresEscalation: true,
	}
}

type fakeDirectory struct {
	mu         sync.Mutex
	registered map[string]bool
}

func (d *fakeDirectory) Register(_ context.Context, roomID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registered[roomID] = true
	return nil
}

func (d *fakeDirectory) Deregister(_ context.Context, roomID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.registered, roomID)
	return nil
}

const instanceAddr = "10.0.0.7:50061"

func (d *fakeDirectory) Lookup(_ context.Context, roomID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.registered[roomID] {
		return "", registry.ErrRoomNotRegistered
	}
	return instanceAddr, nil
}

func (d *fakeDirectory) StartHeartbeat(context.Context) error { return nil }
func (d *fakeDirectory) StopHeartbeat()                       {}
func (d *fakeDirectory) Close() error                         { return nil }

func (d *fakeDirectory) has(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registered[roomID]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
}

func (p *fakePublisher) Publish(_ context.Context, _ string, e *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) ofType(eventType string) []*pubsub.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*pubsub.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	svc      service.SupportService
	hub      *hub.Hub
	sessions *session.Store
	rooms    *room.Registry
	clf      *stubClassifier
	dir      *fakeDirectory
	pub      *fakePublisher
	cases    *fakeCaseRepo
}

func newEnv(t *testing.T, catalog *room.Catalog) *testEnv {
	t.Helper()

	h := hub.NewHub(config.WebSocketConfig{})
	go h.Run()
	t.Cleanup(h.Stop)

	env := &testEnv{
		hub:      h,
		sessions: session.NewStore(),
		rooms:    room.NewRegistry(catalog, 100),
		clf:      &stubClassifier{},
		dir:      &fakeDirectory{registered: make(map[string]bool)},
		pub:      &fakePublisher{},
		cases:    newFakeCaseRepo(),
	}
	env.svc = service.NewSupportService(
		h, env.sessions, env.rooms, env.clf, env.dir,
		events.NewEmitter(env.pub), env.cases,
		config.RoomConfig{CrisisRoom: room.CrisisIntervention, FallbackRoom: room.GeneralSupport},
	)
	return env
}

func (e *testEnv) connect(t *testing.T) *hub.Client {
	t.Helper()
	sess := e.svc.OpenSession(context.Background())
	c := hub.NewClient(sess.ID, sess.AnonymousID, e.hub, nil, config.WebSocketConfig{SendBuffer: 64})
	before := e.hub.ClientCount()
	e.hub.Register(c)
	require.Eventually(t, func() bool { return e.hub.ClientCount() == before+1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, e.svc.HandleConnect(context.Background(), c))

	f := next(t, c)
	require.Equal(t, domain.MsgTypeSessionInitialized, f.Type)
	return c
}

func (e *testEnv) join(t *testing.T, c *hub.Client, roomID string) frame {
	t.Helper()
	require.NoError(t, e.svc.HandleJoinRoom(context.Background(), c, roomID))
	joined := next(t, c)
	require.Equal(t, domain.MsgTypeRoomJoined, joined.Type)
	info := next(t, c)
	require.Equal(t, domain.MsgTypeRoomInfo, info.Type)
	return joined
}

func (e *testEnv) say(t *testing.T, c *hub.Client, text string) {
	t.Helper()
	require.NoError(t, e.svc.HandleUserMessage(context.Background(), c, domain.UserMessageIn{Type: domain.MsgTypeUserMessage, Content: text}))
}

func next(t *testing.T, c *hub.Client) frame {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return frame{}
	}
}

func assertQuiet(t *testing.T, c *hub.Client) {
	t.Helper()
	assert.Len(t, c.Send, 0, "unexpected frames queued")
}

func currentRoom(t *testing.T, e *testEnv, c *hub.Client) string {
	t.Helper()
	sess, ok := e.sessions.Get(c.ID)
	require.True(t, ok)
	return sess.CurrentRoom
}

func TestConnectSendsWelcome(t *testing.T) {
	env := newEnv(t, nil)
	sess := env.svc.OpenSession(context.Background())
	c := hub.NewClient(sess.ID, sess.AnonymousID, env.hub, nil, config.WebSocketConfig{SendBuffer: 8})

	require.NoError(t, env.svc.HandleConnect(context.Background(), c))
	f := next(t, c)

	assert.Equal(t, domain.MsgTypeSessionInitialized, f.Type)
	assert.Equal(t, sess.ID, f.SessionID)
	assert.Equal(t, "anon_"+sess.ID[:8], f.AnonymousID)
	assert.Contains(t, f.notice(t).Content, "Welcome")
}

func TestJoinAndChat(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)

	joined := env.join(t, a, room.GeneralSupport)
	assert.Equal(t, room.GeneralSupport, joined.RoomID)
	assert.Contains(t, joined.notice(t).Content, "General Support")
	assert.Empty(t, env.rooms.History(room.GeneralSupport))
	info := env.svc.DescribeRoom(context.Background(), room.GeneralSupport)
	assert.Equal(t, 1, info.CurrentUsers)
	assert.Equal(t, instanceAddr, info.Instance)
	assert.True(t, env.dir.has(room.GeneralSupport))

	env.say(t, a, "hello")

	// The sender gets only the reply, never its own broadcast.
	reply := next(t, a)
	assert.Equal(t, domain.MsgTypeAIMessage, reply.Type)
	msg := reply.message(t)
	assert.Equal(t, domain.RoleAI, msg.Role)
	assert.Equal(t, "I'm here to listen.", msg.Content)
	assert.Equal(t, room.GeneralSupport, msg.RoomID)
	assertQuiet(t, a)

	history := env.rooms.History(room.GeneralSupport)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAI, history[1].Role)

	env.clf.mu.Lock()
	assert.Equal(t, []classifier.Context{{SessionID: a.ID, RoomID: room.GeneralSupport}}, env.clf.got)
	env.clf.mu.Unlock()
}

func TestUserMessageBroadcastsToOthers(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	b := env.connect(t)
	env.join(t, a, room.EmotionalSupport)
	env.join(t, b, room.EmotionalSupport)

	env.say(t, a, "  rough day  ")

	got := next(t, b)
	assert.Equal(t, domain.MsgTypeUserMessage, got.Type)
	msg := got.message(t)
	assert.Equal(t, "rough day", msg.Content)
	assert.Equal(t, a.AnonymousID, msg.AnonymousID)
	assertQuiet(t, b)

	assert.Equal(t, domain.MsgTypeAIMessage, next(t, a).Type)
	assertQuiet(t, a)
}

func TestUserMessageEdgeCases(t *testing.T) {
	t.Run("blank content is ignored", func(t *testing.T) {
		env := newEnv(t, nil)
		a := env.connect(t)
		env.join(t, a, room.GeneralSupport)

		env.say(t, a, "   ")
		assertQuiet(t, a)
		assert.Empty(t, env.rooms.History(room.GeneralSupport))
	})

	t.Run("legacy message field", func(t *testing.T) {
		env := newEnv(t, nil)
		a := env.connect(t)
		env.join(t, a, room.GeneralSupport)

		require.NoError(t, env.svc.HandleUserMessage(context.Background(), a, domain.UserMessageIn{Message: "hi"}))
		assert.Equal(t, domain.MsgTypeAIMessage, next(t, a).Type)
		assert.Equal(t, "hi", env.rooms.History(room.GeneralSupport)[0].Content)
	})

	t.Run("current room wins over frame room", func(t *testing.T) {
		env := newEnv(t, nil)
		a := env.connect(t)
		env.join(t, a, room.GeneralSupport)

		require.NoError(t, env.svc.HandleUserMessage(context.Background(), a, domain.UserMessageIn{Content: "hi", RoomID: room.LegalConsultation}))
		next(t, a)
		assert.Len(t, env.rooms.History(room.GeneralSupport), 2)
		assert.False(t, env.rooms.Exists(room.LegalConsultation))
	})

	t.Run("no room still gets a reply", func(t *testing.T) {
		env := newEnv(t, nil)
		a := env.connect(t)

		env.say(t, a, "hello")
		reply := next(t, a)
		assert.Equal(t, domain.MsgTypeAIMessage, reply.Type)
		assert.Empty(t, reply.message(t).RoomID)
		assert.Empty(t, env.rooms.Snapshot())
	})
}

func TestClassifierFailureFallsBack(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	env.join(t, a, room.GeneralSupport)

	env.clf.set(func(ctx context.Context, _ string) (classifier.Result, error) {
		return classifier.Result{}, assert.AnError
	})
	env.say(t, a, "hello")

	reply := next(t, a)
	assert.Equal(t, classifier.Fallback().Reply, reply.message(t).Content)
}

func TestClassifierTimeoutWithinBound(t *testing.T) {
	env := newEnv(t, nil)
	guarded := classifier.WithTimeout(env.clf, 50*time.Millisecond)
	env.svc = service.NewSupportService(env.hub, env.sessions, env.rooms, guarded, env.dir, events.NewEmitter(env.pub), env.cases, config.RoomConfig{})
	a := env.connect(t)
	env.join(t, a, room.GeneralSupport)

	env.clf.set(func(ctx context.Context, _ string) (classifier.Result, error) {
		time.Sleep(2 * time.Second)
		return classifier.Result{Reply: "late"}, nil
	})

	start := time.Now()
	env.say(t, a, "hello")
	assert.Less(t, time.Since(start), time.Second)

	reply := next(t, a)
	assert.Equal(t, classifier.Fallback().Reply, reply.message(t).Content)
}

func TestReplyDiscardedWhenSessionClosesDuringClassification(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	b := env.connect(t)
	env.join(t, a, room.GeneralSupport)
	env.join(t, b, room.GeneralSupport)

	env.clf.set(func(ctx context.Context, _ string) (classifier.Result, error) {
		env.svc.HandleDisconnect(ctx, a)
		env.hub.Disconnect(a.ID)
		return crisisResult(), nil
	})
	env.say(t, a, "I want to end my life")

	// b saw the user message and nothing else.
	assert.Equal(t, domain.MsgTypeUserMessage, next(t, b).Type)
	assertQuiet(t, b)

	history := env.rooms.History(room.GeneralSupport)
	require.Len(t, history, 1)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.False(t, env.rooms.Exists(room.CrisisIntervention))
	assert.Empty(t, env.cases.all())
}

func TestCrisisEscalation(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	env.join(t, a, room.GeneralSupport)

	// The crisis room is over capacity; escalation must bypass it.
	for i := 0; i < 12; i++ {
		env.rooms.Join(room.CrisisIntervention, "staff-"+string(rune('a'+i)))
	}
	require.True(t, env.rooms.IsFull(room.CrisisIntervention))

	env.clf.set(func(context.Context, string) (classifier.Result, error) { return crisisResult(), nil })
	env.say(t, a, "I want to end my life")

	reply := next(t, a)
	require.Equal(t, domain.MsgTypeAIMessage, reply.Type)
	assert.True(t, reply.message(t).CrisisAlert)

	alert := next(t, a)
	require.Equal(t, domain.MsgTypeCrisisAlert, alert.Type)
	alertMsg := alert.message(t)
	assert.Equal(t, domain.RoleSystem, alertMsg.Role)
	assert.Equal(t, domain.SystemSender, alertMsg.SessionID)
	assert.Equal(t, service.EmergencyContacts, alertMsg.EmergencyContacts)

	transfer := next(t, a)
	require.Equal(t, domain.MsgTypeRoomTransfer, transfer.Type)
	assert.Equal(t, room.GeneralSupport, transfer.OldRoom)
	assert.Equal(t, room.CrisisIntervention, transfer.NewRoom)
	assert.Contains(t, transfer.notice(t).Content, "Crisis Intervention")
	assertQuiet(t, a)

	assert.Equal(t, room.CrisisIntervention, currentRoom(t, env, a))
	assert.True(t, env.rooms.IsMember(room.CrisisIntervention, a.ID))
	assert.False(t, env.rooms.IsMember(room.GeneralSupport, a.ID))
	assert.False(t, env.rooms.Exists(room.GeneralSupport), "general-support emptied and deleted")

	cases := env.cases.all()
	require.Len(t, cases, 1)
	assert.Equal(t, a.ID, cases[0].SessionID)
	assert.Equal(t, room.GeneralSupport, cases[0].FromRoom)
	assert.Equal(t, room.CrisisIntervention, cases[0].ToRoom)
	assert.Equal(t, classifier.LevelEmergency, cases[0].CrisisLevel)

	require.Eventually(t, func() bool {
		return len(env.pub.ofType(events.TypeCrisisEscalated)) == 1
	}, time.Second, 5*time.Millisecond)
	var p events.CrisisEscalatedPayload
	require.NoError(t, env.pub.ofType(events.TypeCrisisEscalated)[0].UnmarshalPayload(&p))
	assert.Equal(t, cases[0].ID, p.CaseID)
	assert.Equal(t, "suicidal", p.CrisisType)

	assert.Eventually(t, func() bool {
		return len(env.pub.ofType(events.TypeRoomClosed)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCrisisAlertAppendedToPriorRoom(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	b := env.connect(t)
	env.join(t, a, room.GeneralSupport)
	env.join(t, b, room.GeneralSupport)

	env.clf.set(func(context.Context, string) (classifier.Result, error) { return crisisResult(), nil })
	env.say(t, a, "I want to end my life")

	history := env.rooms.History(room.GeneralSupport)
	require.Len(t, history, 3)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAI, history[1].Role)
	assert.Equal(t, domain.RoleSystem, history[2].Role)
	assert.True(t, history[2].CrisisAlert)

	assert.Equal(t, []string{b.ID}, env.rooms.Members(room.GeneralSupport))
}

func TestCrisisInCrisisRoomSkipsTransfer(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	env.join(t, a, room.CrisisIntervention)

	env.clf.set(func(context.Context, string) (classifier.Result, error) { return crisisResult(), nil })
	env.say(t, a, "I want to end my life")

	assert.Equal(t, domain.MsgTypeAIMessage, next(t, a).Type)
	assert.Equal(t, domain.MsgTypeCrisisAlert, next(t, a).Type)
	assertQuiet(t, a)
	assert.Equal(t, room.CrisisIntervention, currentRoom(t, env, a))
	assert.Len(t, env.cases.all(), 1)
}

func TestCrisisWithoutRoomJoinsCrisisRoom(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)

	env.clf.set(func(context.Context, string) (classifier.Result, error) { return crisisResult(), nil })
	env.say(t, a, "I want to end my life")

	next(t, a)
	next(t, a)
	transfer := next(t, a)
	assert.Equal(t, domain.MsgTypeRoomTransfer, transfer.Type)
	assert.Empty(t, transfer.OldRoom)
	assert.True(t, env.rooms.IsMember(room.CrisisIntervention, a.ID))
}

func TestJoinFullRoomRedirectsToFallback(t *testing.T) {
	catalog := room.NewCatalog([]domain.RoomInfo{
		{ID: "tiny", Name: "Tiny", MaxUsers: 1},
		{ID: room.GeneralSupport, Name: "General Support", MaxUsers: 1},
		{ID: room.CrisisIntervention, Name: "Crisis Intervention", MaxUsers: 1},
	})
	env := newEnv(t, catalog)
	a := env.connect(t)
	b := env.connect(t)
	c := env.connect(t)

	env.join(t, a, "tiny")
	joined := env.join(t, b, "tiny")
	assert.Equal(t, room.GeneralSupport, joined.RoomID)
	assert.Equal(t, room.GeneralSupport, currentRoom(t, env, b))
	assert.Equal(t, []string{a.ID}, env.rooms.Members("tiny"))

	// The fallback room itself ignores capacity.
	joined = env.join(t, c, "tiny")
	assert.Equal(t, room.GeneralSupport, joined.RoomID)
	assert.Equal(t, 2, env.rooms.MemberCount(room.GeneralSupport))

	t.Run("crisis room is never redirected", func(t *testing.T) {
		d := env.connect(t)
		e := env.connect(t)
		env.join(t, d, room.CrisisIntervention)
		joined := env.join(t, e, room.CrisisIntervention)
		assert.Equal(t, room.CrisisIntervention, joined.RoomID)
	})

	t.Run("rejoining own full room is not a redirect", func(t *testing.T) {
		joined := env.join(t, a, "tiny")
		assert.Equal(t, "tiny", joined.RoomID)
	})
}

func TestJoinMovesBetweenRooms(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)

	env.join(t, a, room.GeneralSupport)
	env.join(t, a, room.EmotionalSupport)

	assert.False(t, env.rooms.IsMember(room.GeneralSupport, a.ID))
	assert.True(t, env.rooms.IsMember(room.EmotionalSupport, a.ID))
	assert.False(t, env.dir.has(room.GeneralSupport))
	assert.True(t, env.dir.has(room.EmotionalSupport))
	assert.Equal(t, 1, env.svc.Stats().ActiveRooms)
}

func TestJoinEmptyRoomID(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)

	err := env.svc.HandleJoinRoom(context.Background(), a, "  ")
	assert.ErrorIs(t, err, service.ErrEmptyRoomID)
	assertQuiet(t, a)
}

func TestLeaveRoom(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	env.join(t, a, room.LegalConsultation)

	require.NoError(t, env.svc.HandleLeaveRoom(context.Background(), a, room.LegalConsultation))
	left := next(t, a)
	assert.Equal(t, domain.MsgTypeRoomLeft, left.Type)
	assert.Equal(t, room.LegalConsultation, left.RoomID)
	assert.Equal(t, "You have left Legal Consultation.", left.notice(t).Content)

	assert.Empty(t, currentRoom(t, env, a))
	assert.False(t, env.rooms.Exists(room.LegalConsultation))
	assert.False(t, env.dir.has(room.LegalConsultation))

	t.Run("not current room still acks", func(t *testing.T) {
		env.join(t, a, room.GeneralSupport)
		require.NoError(t, env.svc.HandleLeaveRoom(context.Background(), a, "elsewhere"))
		assert.Equal(t, domain.MsgTypeRoomLeft, next(t, a).Type)
		assert.Equal(t, room.GeneralSupport, currentRoom(t, env, a))
	})
}

func TestPing(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)

	require.NoError(t, env.svc.HandlePing(context.Background(), a))
	assert.Equal(t, domain.MsgTypePong, next(t, a).Type)
}

func TestDisconnectLifecycle(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	b := env.connect(t)
	env.join(t, a, "book-club")
	env.join(t, b, "book-club")
	env.say(t, a, "hello")

	env.svc.HandleDisconnect(context.Background(), a)
	assert.Equal(t, []string{b.ID}, env.rooms.Members("book-club"))
	assert.Len(t, env.rooms.History("book-club"), 2)
	_, ok := env.sessions.Get(a.ID)
	assert.False(t, ok)

	// Disconnecting twice is harmless.
	env.svc.HandleDisconnect(context.Background(), a)

	env.svc.HandleDisconnect(context.Background(), b)
	assert.False(t, env.rooms.Exists("book-club"))

	info := env.svc.DescribeRoom(context.Background(), "book-club")
	assert.Equal(t, "Book Club", info.Name)
	assert.Empty(t, info.Instance)
	assert.Equal(t, room.DefaultMaxUsers, info.MaxUsers)
	assert.Equal(t, 0, info.CurrentUsers)
}

func TestEvict(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	env.join(t, a, room.GeneralSupport)

	cut := time.Now().Add(time.Minute)
	assert.True(t, env.svc.Evict(context.Background(), a.ID, cut))
	assert.False(t, env.svc.Evict(context.Background(), a.ID, cut))

	_, ok := env.sessions.Get(a.ID)
	assert.False(t, ok)
	assert.False(t, env.rooms.Exists(room.GeneralSupport))
	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, a.Closed, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(env.pub.ofType(events.TypeSessionEvicted)) == 1
	}, time.Second, 5*time.Millisecond)

	// The read loop's own cleanup after eviction is a no-op.
	env.svc.HandleDisconnect(context.Background(), a)
}

// activeEvictor records activity for every candidate right after the idle
// query, as a frame arriving mid-sweep would.
type activeEvictor struct {
	service.SupportService
}

func (e activeEvictor) IdleSince(threshold time.Time) []string {
	ids := e.SupportService.IdleSince(threshold)
	for _, id := range ids {
		e.Touch(id)
	}
	return ids
}

func TestEvictSparesSessionActiveDuringSweep(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	env.join(t, a, room.GeneralSupport)

	r := reaper.New(activeEvictor{env.svc}, config.SessionConfig{IdleTimeout: 20 * time.Millisecond})
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, r.Sweep(context.Background()))
	_, ok := env.sessions.Get(a.ID)
	assert.True(t, ok)
	assert.Equal(t, room.GeneralSupport, currentRoom(t, env, a))
	assert.False(t, a.Closed())
	assert.Equal(t, 1, env.hub.ClientCount())
	assert.Empty(t, env.pub.ofType(events.TypeSessionEvicted))

	// Once quiet again it goes.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, env.svc.Evict(context.Background(), a.ID, time.Now().Add(-20*time.Millisecond)))
}

func TestIdleSinceAndTouch(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)

	cut := time.Now().Add(time.Minute)
	assert.Equal(t, []string{a.ID}, env.svc.IdleSince(cut))
	assert.Empty(t, env.svc.IdleSince(time.Now().Add(-time.Minute)))

	env.svc.Touch("unknown")
}

func TestStats(t *testing.T) {
	env := newEnv(t, nil)
	a := env.connect(t)
	b := env.connect(t)
	env.join(t, a, room.GeneralSupport)
	env.join(t, b, room.EmotionalSupport)
	env.say(t, a, "hello")

	stats := env.svc.Stats()
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 2, stats.ConnectedClients)
	assert.Equal(t, 2, stats.ActiveRooms)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, domain.RoomStats{Members: 1, Messages: 2}, stats.Rooms[room.GeneralSupport])
	assert.Equal(t, domain.RoomStats{Members: 1, Messages: 0}, stats.Rooms[room.EmotionalSupport])
	assert.False(t, stats.Timestamp.IsZero())
}

func TestConcurrentSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	env := newEnv(t, nil)
	rooms := []string{room.GeneralSupport, room.EmotionalSupport, room.LegalConsultation}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			sess := env.svc.OpenSession(ctx)
			c := hub.NewClient(sess.ID, sess.AnonymousID, env.hub, nil, config.WebSocketConfig{SendBuffer: 1024})
			for j := 0; j < 20; j++ {
				_ = env.svc.HandleJoinRoom(ctx, c, rooms[(i+j)%len(rooms)])
				_ = env.svc.HandleUserMessage(ctx, c, domain.UserMessageIn{Content: "hi"})
			}
			env.svc.HandleDisconnect(ctx, c)
		}()
	}
	wg.Wait()

	assert.Empty(t, env.rooms.Snapshot())
	assert.Equal(t, 0, env.sessions.Count())
}
