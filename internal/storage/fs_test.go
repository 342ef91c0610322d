package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/exambank/qbank/internal/storage"
)

func TestFSRoundTrip(t *testing.T) {
	fs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key, err := fs.Put(ctx, "questions/1/images/a.png", "image/png", bytes.NewReader([]byte("data")), 4)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := fs.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "data" {
		t.Errorf("read back %q", got)
	}
}

func TestFSGetMissing(t *testing.T) {
	fs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Get(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPromote(t *testing.T) {
	fs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := fs.Put(ctx, "tmp/up", "", strings.NewReader("original"), -1); err != nil {
		t.Fatal(err)
	}
	if err := storage.Promote(ctx, fs, "tmp/up", "archives/up"); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	rc, err := fs.Get(ctx, "archives/up")
	if err != nil {
		t.Fatalf("promoted object missing: %v", err)
	}
	rc.Close()
	if _, err := fs.Get(ctx, "tmp/up"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("tmp object still present after promote")
	}
}

func TestKeyLayout(t *testing.T) {
	if k := storage.TmpKey("../../etc/passwd"); !strings.HasPrefix(k, "tmp/") || strings.Contains(k, "..") {
		t.Errorf("TmpKey = %q", k)
	}
	if k := storage.ArchiveKey("bank.docx"); !strings.HasPrefix(k, "archives/") || !strings.HasSuffix(k, "_bank.docx") {
		t.Errorf("ArchiveKey = %q", k)
	}
	if k := storage.ImageKey(12); !strings.HasPrefix(k, "questions/12/images/") || !strings.HasSuffix(k, ".png") {
		t.Errorf("ImageKey = %q", k)
	}
	if storage.TmpKey("a.docx") == storage.TmpKey("a.docx") {
		t.Error("keys must be unique per call")
	}
}
