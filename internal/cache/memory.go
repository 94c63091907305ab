package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"scaledrill/internal/model"
)

// memStore is a map of JSON values with per-key expiry. It backs the
// in-memory caches used for local runs without Redis and in tests.
type memStore struct {
	mu   sync.Mutex
	data map[string]memEntry
	now  func() time.Time
}

type memEntry struct {
	val     []byte
	expires time.Time // zero means no expiry
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]memEntry), now: time.Now}
}

func (m *memStore) set(key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := memEntry{val: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

// get decodes the value into v and reports whether the key was live
func (m *memStore) get(key string, v interface{}) (bool, error) {
	m.mu.Lock()
	e, ok := m.data[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.val, v)
}

func (m *memStore) del(keys ...string) {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
}

// MemorySessions is an in-memory SessionCache
type MemorySessions struct {
	store *memStore
	ttl   time.Duration
}

// NewMemorySessions creates an in-memory session cache
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{store: newMemStore(), ttl: ttl}
}

func (c *MemorySessions) Set(_ context.Context, session *model.DrillSession) error {
	return c.store.set(sessionKey(session.ID), session, c.ttl)
}

func (c *MemorySessions) Get(_ context.Context, id string) (*model.DrillSession, error) {
	var s model.DrillSession
	ok, err := c.store.get(sessionKey(id), &s)
	if !ok || err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *MemorySessions) Delete(_ context.Context, id string) error {
	c.store.del(sessionKey(id))
	return nil
}

// MemoryQuestions is an in-memory QuestionCache
type MemoryQuestions struct {
	store *memStore
	ttl   time.Duration

	mu  sync.Mutex
	seq map[string]int
}

// NewMemoryQuestions creates an in-memory question cache
func NewMemoryQuestions(ttl time.Duration) *MemoryQuestions {
	return &MemoryQuestions{store: newMemStore(), ttl: ttl, seq: make(map[string]int)}
}

func (c *MemoryQuestions) NextKey(_ context.Context, sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[sessionID]++
	return fmt.Sprintf("q%d", c.seq[sessionID]), nil
}

func (c *MemoryQuestions) SetCurrent(_ context.Context, sessionID string, q *model.IssuedQuestion) error {
	return c.store.set(currentKey(sessionID), q, c.ttl)
}

func (c *MemoryQuestions) GetCurrent(_ context.Context, sessionID string) (*model.IssuedQuestion, error) {
	var q model.IssuedQuestion
	ok, err := c.store.get(currentKey(sessionID), &q)
	if !ok || err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *MemoryQuestions) ClearCurrent(_ context.Context, sessionID string) error {
	c.store.del(currentKey(sessionID))
	return nil
}

func (c *MemoryQuestions) Forget(_ context.Context, sessionID string) error {
	c.store.del(currentKey(sessionID))
	c.mu.Lock()
	delete(c.seq, sessionID)
	c.mu.Unlock()
	return nil
}

// MemoryPresets is an in-memory PresetCache
type MemoryPresets struct {
	store *memStore
}

// NewMemoryPresets creates an in-memory preset cache
func NewMemoryPresets() *MemoryPresets {
	return &MemoryPresets{store: newMemStore()}
}

func (c *MemoryPresets) SetMeta(_ context.Context, meta *model.PresetMeta) error {
	return c.store.set("preset:"+meta.Code, meta, 24*time.Hour)
}

func (c *MemoryPresets) GetMeta(_ context.Context, code string) (*model.PresetMeta, error) {
	var meta model.PresetMeta
	ok, err := c.store.get("preset:"+code, &meta)
	if !ok || err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *MemoryPresets) Delete(_ context.Context, code string) error {
	c.store.del("preset:" + code)
	return nil
}

func (c *MemoryPresets) Exists(_ context.Context, code string) (bool, error) {
	var meta model.PresetMeta
	return c.store.get("preset:"+code, &meta)
}

var (
	_ SessionCache  = (*MemorySessions)(nil)
	_ QuestionCache = (*MemoryQuestions)(nil)
	_ PresetCache   = (*MemoryPresets)(nil)
)
