package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/unkn0wn-root/reqrun/internal/model"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "history", "requests.json")
}

func TestAppendAndEntries(t *testing.T) {
	store := NewStore(tempStorePath(t), 10)

	for i, id := range []string{"a", "b", "c"} {
		err := store.Append(Entry{
			ID:         id,
			ExecutedAt: time.Unix(int64(1000+i), 0),
			Method:     "GET",
			URL:        "https://x.test/",
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries := store.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != "c" || entries[2].ID != "a" {
		t.Fatalf("expected newest first, got %v", entries)
	}
}

func TestAppendEnforcesLimit(t *testing.T) {
	store := NewStore(tempStorePath(t), 2)
	for i := 0; i < 4; i++ {
		err := store.Append(Entry{
			ID:         string(rune('a' + i)),
			ExecutedAt: time.Unix(int64(1000+i), 0),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	entries := store.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected bounded list, got %d", len(entries))
	}
	if entries[0].ID != "d" || entries[1].ID != "c" {
		t.Fatalf("expected newest entries kept, got %v", entries)
	}
}

func TestPersistAndReload(t *testing.T) {
	path := tempStorePath(t)
	store := NewStore(path, 10)
	if err := store.Append(Entry{ID: "a", ExecutedAt: time.Unix(1000, 0), URL: "https://x.test/"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reloaded := NewStore(path, 10)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	entries := reloaded.Entries()
	if len(entries) != 1 || entries[0].ID != "a" {
		t.Fatalf("expected persisted entry back, got %v", entries)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(tempStorePath(t), 10)
	if err := store.Load(); err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := tempStorePath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewStore(path, 10).Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDelete(t *testing.T) {
	store := NewStore(tempStorePath(t), 10)
	for _, id := range []string{"a", "b"} {
		if err := store.Append(Entry{ID: id, ExecutedAt: time.Now()}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	removed, err := store.Delete("a")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	removed, err = store.Delete("ghost")
	if err != nil || removed {
		t.Fatalf("expected miss for unknown id, got %v %v", removed, err)
	}
	if entries := store.Entries(); len(entries) != 1 || entries[0].ID != "b" {
		t.Fatalf("unexpected entries %v", entries)
	}
}

func TestByURL(t *testing.T) {
	store := NewStore(tempStorePath(t), 10)
	seed := []Entry{
		{ID: "a", ExecutedAt: time.Unix(1000, 0), URL: "https://x.test/one"},
		{ID: "b", ExecutedAt: time.Unix(2000, 0), URL: "https://x.test/two"},
		{ID: "c", ExecutedAt: time.Unix(3000, 0), URL: "https://x.test/one"},
	}
	for _, entry := range seed {
		if err := store.Append(entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	matched := store.ByURL("https://x.test/one")
	if len(matched) != 2 || matched[0].ID != "c" || matched[1].ID != "a" {
		t.Fatalf("expected newest-first url matches, got %v", matched)
	}
}

func TestFromLog(t *testing.T) {
	log := &model.RequestLog{
		ID: "log-1",
		Request: &model.SentRequest{
			Request: model.Request{Method: "POST", URL: "https://x.test/"},
		},
		Response: &model.Response{Status: 201, LoadingTime: 42},
		Redirects: []model.ResponseRedirect{
			{URL: "https://x.test/hop"},
		},
		Size: &model.SizeInfo{Request: 10, Response: 20},
	}

	entry := FromLog("checkout", log)
	if entry.ID != "log-1" || entry.Project != "checkout" {
		t.Fatalf("unexpected identity fields %+v", entry)
	}
	if entry.Method != "POST" || entry.URL != "https://x.test/" {
		t.Fatalf("unexpected request fields %+v", entry)
	}
	if entry.Status != 201 || entry.LoadingTime != 42 || entry.Redirects != 1 {
		t.Fatalf("unexpected response fields %+v", entry)
	}
	if entry.SizeRequest != 10 || entry.SizeReply != 20 {
		t.Fatalf("unexpected size fields %+v", entry)
	}
	if entry.ExecutedAt.IsZero() {
		t.Fatalf("expected execution timestamp")
	}
}

func TestFromLogErrorResponse(t *testing.T) {
	log := &model.RequestLog{
		ID:       "log-2",
		Request:  &model.SentRequest{Request: model.Request{Method: "GET", URL: "https://dead.test/"}},
		Response: model.ErrorResponse(os.ErrDeadlineExceeded),
	}
	entry := FromLog("", log)
	if entry.Status != 0 || entry.Error == "" {
		t.Fatalf("expected error summary, got %+v", entry)
	}
}
