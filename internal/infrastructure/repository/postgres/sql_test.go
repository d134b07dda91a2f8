package postgres

import (
	"database/sql"
	"testing"
	"time"
)

func TestOptionalString(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		got := optionalString("  value  ")
		if got == nil || *got != "value" {
			t.Fatalf("unexpected optional string: %v", got)
		}
	})

	t.Run("empty becomes nil", func(t *testing.T) {
		if optionalString("   ") != nil {
			t.Fatalf("expected nil for blank input")
		}
	})
}

func TestNullConversions(t *testing.T) {
	if nullStringToPtr(sql.NullString{}) != nil {
		t.Fatalf("expected nil for null string")
	}
	if got := nullStringToPtr(sql.NullString{String: "team-a", Valid: true}); got == nil || *got != "team-a" {
		t.Fatalf("unexpected string pointer: %v", got)
	}

	if nullInt64ToPtr(sql.NullInt64{}) != nil {
		t.Fatalf("expected nil for null int64")
	}
	if got := nullInt64ToPtr(sql.NullInt64{Int64: 41, Valid: true}); got == nil || *got != 41 {
		t.Fatalf("unexpected int64 pointer: %v", got)
	}
}

func TestNullableTime(t *testing.T) {
	if nullableTime(nil) != nil {
		t.Fatalf("expected nil for nil time")
	}
	zero := time.Time{}
	if nullableTime(&zero) != nil {
		t.Fatalf("expected nil for zero time")
	}

	loc := time.FixedZone("UTC+7", 7*3600)
	local := time.Date(2026, time.March, 19, 7, 0, 0, 0, loc)
	got := nullableTime(&local)
	if got == nil || got.Location() != time.UTC {
		t.Fatalf("expected UTC normalized time, got %v", got)
	}
	if !got.Equal(local) {
		t.Fatalf("normalization must not shift the instant")
	}
}

func TestMarshalPayload(t *testing.T) {
	got, err := marshalPayload(nil)
	if err != nil || got != "{}" {
		t.Fatalf("empty payload = %q err=%v", got, err)
	}

	got, err = marshalPayload(map[string]any{"season": 2026})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if got != `{"season":2026}` {
		t.Fatalf("payload = %q", got)
	}
}
