package service

import (
	"sync"

	"scaledrill/internal/cache"
	"scaledrill/internal/repository"
)

func newMemSessions() *cache.MemorySessions   { return cache.NewMemorySessions(0) }
func newMemQuestions() *cache.MemoryQuestions { return cache.NewMemoryQuestions(0) }
func newMemPresetCache() *cache.MemoryPresets { return cache.NewMemoryPresets() }

func newMemPresetRepo() *repository.MemoryPresetRepo { return repository.NewMemoryPresetRepo() }

type sent struct {
	target  string
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu           sync.Mutex
	msgs         []sent
	disconnected []string
	followed     []string
	followers    map[string][]string // presetCode -> connected sessions
}

func (b *recordingBroadcaster) BroadcastToSession(id, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, sent{id, msgType, payload})
}

func (b *recordingBroadcaster) BroadcastToPreset(code, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, sent{code, msgType, payload})
}

func (b *recordingBroadcaster) FollowPreset(id, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.followed = append(b.followed, id+"->"+code)
}

func (b *recordingBroadcaster) Followers(code string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.followers[code]
}

func (b *recordingBroadcaster) DisconnectSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, id)
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.msgs))
	for i, m := range b.msgs {
		out[i] = m.msgType
	}
	return out
}
