package fs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"taskcore/internal/blob/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	payload := `{"project_id":"P1","count":2}`
	info, err := store.Put(ctx, "snapshots/P1/20260101T000000Z.json", strings.NewReader(payload), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"project_id": "P1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "snapshots/P1/20260101T000000Z.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != payload {
		t.Fatalf("body mismatch: %s", body)
	}
	if got.ContentType != "application/json" || got.Metadata["project_id"] != "P1" {
		t.Fatalf("sidecar metadata lost: %+v", got)
	}
}

func TestPutRefusesOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "a/b", strings.NewReader("1"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "a/b", strings.NewReader("2"), core.PutOptions{}); err == nil {
		t.Fatalf("expected overwrite rejection")
	}
}

func TestKeyTraversalRejected(t *testing.T) {
	store := newTestStore(t)
	for _, key := range []string{"", "/abs", "../escape", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestMissingBlobIsNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, _, err := store.Get(context.Background(), "absent"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Head(context.Background(), "absent"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
}

func TestListWalksNestedKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"snapshots/P1/b.json", "snapshots/P1/a.json", "snapshots/P2/c.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "snapshots/P1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "snapshots/P1/a.json" || infos[1].Key != "snapshots/P1/b.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestDeleteRemovesDataAndSidecar(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "k.json", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ok, err := store.Delete(ctx, "k.json"); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.Delete(ctx, "k.json"); ok {
		t.Fatalf("second delete reported existence")
	}
	infos, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("sidecar left behind: %+v", infos)
	}
}

func TestPresignReturnsLocalURL(t *testing.T) {
	store := newTestStore(t)
	url, err := store.PresignURL(context.Background(), "k.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "local.blob") {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := store.PresignURL(context.Background(), "k.json", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT, got %v", err)
	}
}
