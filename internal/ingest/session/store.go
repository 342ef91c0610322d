// Package session holds preview state between the upload/preview call and
// the commit call: parsed blocks, extracted images, and an optional staged
// copy of the original upload. Sessions are ephemeral and in-memory only.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/exambank/qbank/internal/ingest/parse"
)

// DefaultTTL bounds how long a reviewer can sit on a preview before it is
// reclaimed.
const DefaultTTL = 30 * time.Minute

// SweepInterval is how often the background sweep removes expired sessions.
const SweepInterval = 5 * time.Minute

// TempUpload describes the original file staged under the tmp/ prefix so
// commit can promote it to permanent storage.
type TempUpload struct {
	Key          string
	OriginalName string
	ContentType  string
	SizeBytes    int64
}

type Session struct {
	ID         string
	ExpiresAt  time.Time
	Images     [][]byte
	Blocks     []parse.PreviewBlock
	TempUpload *TempUpload
}

type Store struct {
	mu  sync.RWMutex
	m   map[string]*Session
	ttl time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		m:    map[string]*Session{},
		ttl:  ttl,
		stop: make(chan struct{}),
		now:  time.Now,
	}
}

func (s *Store) Create(images [][]byte, blocks []parse.PreviewBlock) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		ExpiresAt: s.now().Add(s.ttl),
		Images:    images,
		Blocks:    blocks,
	}
	s.mu.Lock()
	s.m[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get checks expiry lazily: a session past its TTL reads as not-found even
// before the sweep has removed it.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(sess.ExpiresAt) {
		s.Remove(id)
		return nil, false
	}
	return sess, true
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}

func (s *Store) AttachTempUpload(id string, t TempUpload) {
	if id == "" || t.Key == "" {
		return
	}
	s.mu.Lock()
	if sess, ok := s.m[id]; ok {
		sess.TempUpload = &t
	}
	s.mu.Unlock()
}

func (s *Store) TakeTempUpload(id string) (TempUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok || sess.TempUpload == nil {
		return TempUpload{}, false
	}
	t := *sess.TempUpload
	sess.TempUpload = nil
	return t, true
}

// Sweep removes every expired session. Exposed for tests; normally driven
// by Run.
func (s *Store) Sweep() {
	now := s.now()
	s.mu.Lock()
	for id, sess := range s.m {
		if now.After(sess.ExpiresAt) {
			delete(s.m, id)
		}
	}
	s.mu.Unlock()
}

// Run sweeps on a fixed interval until Close is called.
func (s *Store) Run(interval time.Duration) {
	if interval <= 0 {
		interval = SweepInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
