package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory implements Adapter with in-process maps. It mirrors the Dynamo
// adapter's semantics (conditional writes, pagination tokens, JSON-ish value
// normalization) and backs unit tests and the local development mode.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string]Item
}

var _ Adapter = (*Memory)(nil)

// NewMemory creates an empty in-memory store adapter.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]Item)}
}

// Get retrieves an item by key, returning ErrNotFound if missing.
func (m *Memory) Get(ctx context.Context, table string, key Key) (Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.tables[table][canonicalKey(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyItem(item), nil
}

// Put writes an item, honoring the optional condition. The item's key is the
// subset of attributes named by the table's first writer; in practice every
// ontology table is keyed by a single attribute ("id" or "slug"), so the key
// is derived from whichever of the two the item carries.
func (m *Memory) Put(ctx context.Context, table string, item Item, cond *Condition) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	key, err := itemKey(item)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.tables[table][canonicalKey(key)]
	if err := checkCondition(cond, existing); err != nil {
		return err
	}
	if m.tables[table] == nil {
		m.tables[table] = make(map[string]Item)
	}
	m.tables[table][canonicalKey(key)] = copyItem(item)
	return nil
}

// Update applies patch to the stored item, honoring the optional condition.
func (m *Memory) Update(ctx context.Context, table string, key Key, patch Item, cond *Condition) (Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tables[table][canonicalKey(key)]
	if !ok {
		if cond != nil {
			return nil, ErrConditionFailed
		}
		return nil, ErrNotFound
	}
	if err := checkCondition(cond, existing); err != nil {
		return nil, err
	}

	updated := copyItem(existing)
	for k, v := range patch {
		updated[k] = v
	}
	updated = copyItem(updated)
	m.tables[table][canonicalKey(key)] = updated
	return copyItem(updated), nil
}

// Delete removes the item at key, honoring the optional condition.
func (m *Memory) Delete(ctx context.Context, table string, key Key, cond *Condition) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tables[table][canonicalKey(key)]
	if err := checkCondition(cond, existing); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	delete(m.tables[table], canonicalKey(key))
	return nil
}

// Query filters items by key equality. Secondary index names are accepted and
// ignored: every attribute is directly accessible in memory.
func (m *Memory) Query(ctx context.Context, in QueryInput) (*Page, error) {
	if len(in.Key) == 0 {
		return nil, fmt.Errorf("ontology: query requires a key condition")
	}
	match := make(map[string]any, len(in.Key)+len(in.Filter))
	for k, v := range in.Key {
		match[k] = v
	}
	for k, v := range in.Filter {
		match[k] = v
	}
	return m.collect(ctx, in.Table, match, in.Limit, in.StartToken)
}

// Scan reads the whole table with an optional equality filter.
func (m *Memory) Scan(ctx context.Context, in ScanInput) (*Page, error) {
	return m.collect(ctx, in.Table, in.Filter, in.Limit, in.StartToken)
}

func (m *Memory) collect(ctx context.Context, table string, match map[string]any, limit int32, startToken string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	start := ""
	if startToken != "" {
		b, err := base64.RawURLEncoding.DecodeString(startToken)
		if err != nil {
			return nil, ErrBadToken
		}
		start = string(b)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.tables[table]))
	for k := range m.tables[table] {
		if k > start {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := &Page{}
	for _, k := range keys {
		item := m.tables[table][k]
		if !matches(item, match) {
			continue
		}
		page.Items = append(page.Items, copyItem(item))
		if limit > 0 && int32(len(page.Items)) == limit {
			if k != keys[len(keys)-1] {
				page.NextToken = base64.RawURLEncoding.EncodeToString([]byte(k))
			}
			break
		}
	}
	page.Count = len(page.Items)
	return page, nil
}

func matches(item Item, match map[string]any) bool {
	for k, want := range match {
		got, ok := item[k]
		if !ok || !equalValue(got, want) {
			return false
		}
	}
	return true
}

func checkCondition(cond *Condition, existing Item) error {
	if cond == nil {
		return nil
	}
	if cond.NotExists != "" {
		if existing != nil {
			if _, ok := existing[cond.NotExists]; ok {
				return ErrConditionFailed
			}
		}
	}
	if cond.Exists != "" {
		if existing == nil {
			return ErrConditionFailed
		}
		if _, ok := existing[cond.Exists]; !ok {
			return ErrConditionFailed
		}
	}
	for k, want := range cond.Equals {
		if existing == nil {
			return ErrConditionFailed
		}
		got, ok := existing[k]
		if !ok || !equalValue(got, want) {
			return ErrConditionFailed
		}
	}
	return nil
}

// itemKey derives the item's primary key. Ontology tables are keyed by a
// single attribute, "slug" for registry tables and "id" for instance tables.
func itemKey(item Item) (Key, error) {
	if v, ok := item["id"]; ok {
		return Key{"id": v}, nil
	}
	if v, ok := item["slug"]; ok {
		return Key{"slug": v}, nil
	}
	return nil, fmt.Errorf("ontology: item carries neither id nor slug")
}

func canonicalKey(key Key) string {
	parts := make([]string, 0, len(key))
	for _, k := range sortedKeys(key) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, key[k]))
	}
	return strings.Join(parts, "|")
}

// copyItem deep-copies through a JSON round trip, normalizing values to the
// same types a DynamoDB marshal/unmarshal cycle would produce.
func copyItem(item Item) Item {
	if item == nil {
		return nil
	}
	b, err := json.Marshal(map[string]any(item))
	if err != nil {
		out := make(Item, len(item))
		for k, v := range item {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return item
	}
	return Item(out)
}

func equalValue(a, b any) bool {
	if na, ok := toFloat(a); ok {
		nb, ok := toFloat(b)
		return ok && na == nb
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
