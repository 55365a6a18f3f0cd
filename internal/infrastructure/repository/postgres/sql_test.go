package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches unique violation code", func(t *testing.T) {
		err := fmt.Errorf("append game: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for 23505 error")
		}
	})

	t.Run("ignores other pq codes", func(t *testing.T) {
		err := &pq.Error{Code: "23503"}
		if isUniqueViolation(err) {
			t.Fatalf("expected false for foreign key violation")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isUniqueViolation(fmt.Errorf("pq: relation games does not exist")) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if isNotFound(fmt.Errorf("boom")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestNullString(t *testing.T) {
	if got := nullString(""); got.Valid {
		t.Fatalf("empty string must map to NULL")
	}
	if got := nullString("deck-1"); !got.Valid || got.String != "deck-1" {
		t.Fatalf("unexpected null string: %+v", got)
	}
}
