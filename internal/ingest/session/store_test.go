package session

import (
	"sync"
	"testing"
	"time"

	"github.com/exambank/qbank/internal/ingest/parse"
)

func TestCreateGetRoundTrip(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	sess := s.Create([][]byte{[]byte("img")}, []parse.PreviewBlock{{Index: 1, Content: "q"}})
	if sess.ID == "" {
		t.Fatal("empty session id")
	}
	got, ok := s.Get(sess.ID)
	if !ok {
		t.Fatal("session not found")
	}
	if len(got.Blocks) != 1 || got.Blocks[0].Content != "q" {
		t.Errorf("blocks = %#v", got.Blocks)
	}
	if len(got.Images) != 1 {
		t.Errorf("images = %d", len(got.Images))
	}
}

func TestGetExpiresLazily(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }

	sess := s.Create(nil, nil)
	if _, ok := s.Get(sess.ID); !ok {
		t.Fatal("fresh session should resolve")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := s.Get(sess.ID); ok {
		t.Fatal("expired session should read as not-found")
	}
	if s.Len() != 0 {
		t.Errorf("lazy expiry left %d sessions behind", s.Len())
	}
}

func TestSweep(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }

	s.Create(nil, nil)
	s.Create(nil, nil)
	current = current.Add(30 * time.Second)
	live := s.Create(nil, nil)
	current = current.Add(45 * time.Second)

	s.Sweep()
	if s.Len() != 1 {
		t.Fatalf("after sweep Len = %d, want 1", s.Len())
	}
	if _, ok := s.Get(live.ID); !ok {
		t.Error("unexpired session swept")
	}
}

func TestTakeTempUpload(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	sess := s.Create(nil, nil)
	if _, ok := s.TakeTempUpload(sess.ID); ok {
		t.Fatal("no temp upload attached yet")
	}
	s.AttachTempUpload(sess.ID, TempUpload{Key: "tmp/x", OriginalName: "bank.docx"})

	got, ok := s.TakeTempUpload(sess.ID)
	if !ok || got.Key != "tmp/x" {
		t.Fatalf("take = %#v, %v", got, ok)
	}
	// Take is one-shot.
	if _, ok := s.TakeTempUpload(sess.ID); ok {
		t.Fatal("second take should miss")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = s.Create(nil, nil).ID
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Get(ids[i])
			if i%2 == 0 {
				s.Remove(ids[i])
			}
		}(i)
	}
	wg.Wait()
	if s.Len() != 25 {
		t.Errorf("Len = %d, want 25", s.Len())
	}
}
