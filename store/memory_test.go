package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/captify-io/ontology/store"
)

func TestMemory_PutGet(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	err := m.Put(ctx, "t", store.Item{"id": "a", "name": "first"}, nil)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	item, err := m.Get(ctx, "t", store.Key{"id": "a"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item["name"] != "first" {
		t.Errorf("expected name 'first', got %v", item["name"])
	}
}

func TestMemory_GetMissing(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Get(context.Background(), "t", store.Key{"id": "nope"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_ConditionalPut(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	cond := &store.Condition{NotExists: "id"}

	if err := m.Put(ctx, "t", store.Item{"id": "a"}, cond); err != nil {
		t.Fatalf("first put: %v", err)
	}
	err := m.Put(ctx, "t", store.Item{"id": "a"}, cond)
	if !errors.Is(err, store.ErrConditionFailed) {
		t.Errorf("expected ErrConditionFailed on duplicate, got %v", err)
	}
}

func TestMemory_UpdateVersionCheck(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "t", store.Item{"id": "a", "version": 1, "name": "x"}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	updated, err := m.Update(ctx, "t", store.Key{"id": "a"},
		store.Item{"version": 2, "name": "y"},
		&store.Condition{Equals: map[string]any{"version": 1}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["name"] != "y" {
		t.Errorf("expected updated name 'y', got %v", updated["name"])
	}

	// Stale version loses.
	_, err = m.Update(ctx, "t", store.Key{"id": "a"},
		store.Item{"version": 2, "name": "z"},
		&store.Condition{Equals: map[string]any{"version": 1}})
	if !errors.Is(err, store.ErrConditionFailed) {
		t.Errorf("expected ErrConditionFailed for stale version, got %v", err)
	}
}

func TestMemory_UpdateMissing(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Update(context.Background(), "t", store.Key{"id": "nope"}, store.Item{"x": 1}, nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_DeleteConditional(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	cond := &store.Condition{Exists: "id"}

	err := m.Delete(ctx, "t", store.Key{"id": "a"}, cond)
	if !errors.Is(err, store.ErrConditionFailed) {
		t.Errorf("expected ErrConditionFailed deleting missing item, got %v", err)
	}

	if err := m.Put(ctx, "t", store.Item{"id": "a"}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.Delete(ctx, "t", store.Key{"id": "a"}, cond); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "t", store.Key{"id": "a"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected item gone, got %v", err)
	}
}

func TestMemory_QueryFiltersByKey(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	for _, item := range []store.Item{
		{"id": "c1", "contractId": "k1", "status": "open"},
		{"id": "c2", "contractId": "k1", "status": "closed"},
		{"id": "c3", "contractId": "k2", "status": "open"},
	} {
		if err := m.Put(ctx, "t", item, nil); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	page, err := m.Query(ctx, store.QueryInput{
		Table: "t",
		Index: "contractId-index",
		Key:   map[string]any{"contractId": "k1"},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Count != 2 {
		t.Errorf("expected 2 items, got %d", page.Count)
	}

	// Additional equality filter narrows the page further.
	page, err = m.Query(ctx, store.QueryInput{
		Table:  "t",
		Key:    map[string]any{"contractId": "k1"},
		Filter: map[string]any{"status": "open"},
	})
	if err != nil {
		t.Fatalf("query with filter: %v", err)
	}
	if page.Count != 1 || page.Items[0]["id"] != "c1" {
		t.Errorf("expected only c1, got %v", page.Items)
	}
}

func TestMemory_QueryRequiresKey(t *testing.T) {
	m := store.NewMemory()
	if _, err := m.Query(context.Background(), store.QueryInput{Table: "t"}); err == nil {
		t.Error("expected error for query without key condition")
	}
}

func TestMemory_ScanPagination(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if err := m.Put(ctx, "t", store.Item{"id": id}, nil); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	var seen []string
	token := ""
	pages := 0
	for {
		page, err := m.Scan(ctx, store.ScanInput{Table: "t", Limit: 2, StartToken: token})
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		pages++
		for _, item := range page.Items {
			seen = append(seen, item["id"].(string))
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	if len(seen) != 5 {
		t.Errorf("expected 5 items across pages, got %d (%v)", len(seen), seen)
	}
	if pages < 3 {
		t.Errorf("expected at least 3 pages with limit 2, got %d", pages)
	}
}

func TestMemory_ScanBadToken(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Scan(context.Background(), store.ScanInput{Table: "t", StartToken: "%%%"})
	if !errors.Is(err, store.ErrBadToken) {
		t.Errorf("expected ErrBadToken, got %v", err)
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	m := store.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Get(ctx, "t", store.Key{"id": "a"}); !errors.Is(err, store.ErrTimeout) {
		t.Errorf("expected ErrTimeout for canceled context, got %v", err)
	}
}

func TestMemory_CopyOnRead(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "t", store.Item{"id": "a", "name": "x"}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	item, err := m.Get(ctx, "t", store.Key{"id": "a"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	item["name"] = "mutated"

	again, err := m.Get(ctx, "t", store.Key{"id": "a"})
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again["name"] != "x" {
		t.Errorf("expected stored item unaffected by caller mutation, got %v", again["name"])
	}
}

func TestMemory_NumericNormalization(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "t", store.Item{"id": "a", "version": int64(1)}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	// The stored copy normalizes numbers; the condition must still match the
	// original integer value.
	_, err := m.Update(ctx, "t", store.Key{"id": "a"},
		store.Item{"version": int64(2)},
		&store.Condition{Equals: map[string]any{"version": int64(1)}})
	if err != nil {
		t.Fatalf("expected int64 condition to match normalized value, got %v", err)
	}
}
