package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modoostudy/roomserver/internal/core"
	"github.com/modoostudy/roomserver/internal/domain"
	"github.com/modoostudy/roomserver/internal/protocol"
)

// fakeSender captures emitted frames in order.
type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSender) TrySend(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeSender) Close() {}

func (f *fakeSender) envelopes(t *testing.T) []protocol.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		env, err := protocol.Decode(frame)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

// events returns the captured event names in emission order.
func (f *fakeSender) events(t *testing.T) []string {
	t.Helper()
	envs := f.envelopes(t)
	names := make([]string, len(envs))
	for i, env := range envs {
		names[i] = env.Event
	}
	return names
}

// lastPayload decodes the newest frame carrying the given event.
func lastPayload(t *testing.T, f *fakeSender, event string, v any) {
	t.Helper()
	envs := f.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Event == event {
			require.NoError(t, json.Unmarshal(envs[i].Data, v))
			return
		}
	}
	t.Fatalf("no %q frame captured", event)
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func newTestOrch() *Orchestrator {
	return NewOrchestrator(core.NewRegistry(), NewConnTable(), NewMemoryChatStore(0))
}

func join(o *Orchestrator, cid domain.ConnID, room, user, name string) *fakeSender {
	s := &fakeSender{}
	o.OnConnect(cid, s, nil)
	o.JoinRoom(cid, protocol.JoinRoom{RoomID: room, UserID: user, UserName: name})
	return s
}

func boolPtr(b bool) *bool { return &b }
