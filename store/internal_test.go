package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestBuildCondition_NotExists(t *testing.T) {
	expr, names, values, err := buildCondition(&Condition{NotExists: "id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != "attribute_not_exists(#cne)" {
		t.Errorf("unexpected expression %q", expr)
	}
	if names["#cne"] != "id" {
		t.Errorf("expected #cne -> id, got %v", names)
	}
	if len(values) != 0 {
		t.Errorf("expected no values, got %v", values)
	}
}

func TestBuildCondition_Exists(t *testing.T) {
	expr, names, _, err := buildCondition(&Condition{Exists: "id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != "attribute_exists(#cex)" {
		t.Errorf("unexpected expression %q", expr)
	}
	if names["#cex"] != "id" {
		t.Errorf("expected #cex -> id, got %v", names)
	}
}

func TestBuildCondition_Equals(t *testing.T) {
	expr, names, values, err := buildCondition(&Condition{Equals: map[string]any{"version": int64(3)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != "#cond0 = :condval0" {
		t.Errorf("unexpected expression %q", expr)
	}
	if names["#cond0"] != "version" {
		t.Errorf("expected #cond0 -> version, got %v", names)
	}
	n, ok := values[":condval0"].(*types.AttributeValueMemberN)
	if !ok || n.Value != "3" {
		t.Errorf("expected :condval0 = N(3), got %v", values[":condval0"])
	}
}

func TestBuildCondition_Combined(t *testing.T) {
	expr, _, _, err := buildCondition(&Condition{Exists: "id", Equals: map[string]any{"version": int64(1)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != "attribute_exists(#cex) AND #cond0 = :condval0" {
		t.Errorf("unexpected expression %q", expr)
	}
}

func TestBuildCondition_Empty(t *testing.T) {
	if _, _, _, err := buildCondition(&Condition{}); err == nil {
		t.Error("expected error for empty condition")
	}
}

func TestAddFilter_SortedDeterministic(t *testing.T) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	expr, err := addFilter(map[string]any{"b": "2", "a": "1"}, names, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != "#f0 = :fval0 AND #f1 = :fval1" {
		t.Errorf("unexpected expression %q", expr)
	}
	if names["#f0"] != "a" || names["#f1"] != "b" {
		t.Errorf("expected alphabetical placeholder order, got %v", names)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	last := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: "abc-123"},
	}
	token, err := encodeToken(last)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, ok := decoded["id"].(*types.AttributeValueMemberS)
	if !ok || s.Value != "abc-123" {
		t.Errorf("expected id = S(abc-123), got %v", decoded["id"])
	}
}

func TestDecodeToken_Garbage(t *testing.T) {
	if _, err := decodeToken("!!!not-base64!!!"); !errors.Is(err, ErrBadToken) {
		t.Errorf("expected ErrBadToken, got %v", err)
	}
	// Valid base64, invalid JSON.
	if _, err := decodeToken("bm90LWpzb24"); !errors.Is(err, ErrBadToken) {
		t.Errorf("expected ErrBadToken for non-JSON payload, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("expected nil for nil error")
	}
	if err := mapError(&types.ConditionalCheckFailedException{}); !errors.Is(err, ErrConditionFailed) {
		t.Errorf("expected ErrConditionFailed, got %v", err)
	}
	if err := mapError(fmt.Errorf("rpc: %w", context.DeadlineExceeded)); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if err := mapError(errors.New("throttled")); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestItemKey(t *testing.T) {
	key, err := itemKey(Item{"id": "i1", "slug": "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key["id"] != "i1" {
		t.Errorf("expected id preferred over slug, got %v", key)
	}

	key, err = itemKey(Item{"slug": "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key["slug"] != "s1" {
		t.Errorf("expected slug key, got %v", key)
	}

	if _, err := itemKey(Item{"name": "x"}); err == nil {
		t.Error("expected error for item without id or slug")
	}
}
