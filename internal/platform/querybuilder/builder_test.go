package querybuilder

import "testing"

func TestSelectWithConditionsAndOrder(t *testing.T) {
	sql, args, err := Select("id", "format", "status").
		From("matches").
		Where(Eq("status", "published"), Lt("created_at", 123)).
		OrderBy("created_at DESC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}

	want := "SELECT id, format, status FROM matches WHERE status = $1 AND created_at < $2 ORDER BY created_at DESC LIMIT 10"
	if sql != want {
		t.Fatalf("sql = %q, want %q", sql, want)
	}
	if len(args) != 2 || args[0] != "published" || args[1] != 123 {
		t.Fatalf("args = %v", args)
	}
}

func TestInsertWithSuffixPlaceholders(t *testing.T) {
	sql, args, err := InsertInto("games").
		Columns("match_id", "game_number", "winner_id").
		Values("m1", 1, "u1").
		Suffix("ON CONFLICT DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}

	want := "INSERT INTO games (match_id, game_number, winner_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING"
	if sql != want {
		t.Fatalf("sql = %q, want %q", sql, want)
	}
	if len(args) != 3 {
		t.Fatalf("args = %v", args)
	}
}

func TestUpdateWithExpr(t *testing.T) {
	sql, args, err := Update("matches").
		Set("status", "published").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "m1")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}

	want := "UPDATE matches SET status = $1, updated_at = NOW() WHERE id = $2"
	if sql != want {
		t.Fatalf("sql = %q, want %q", sql, want)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v", args)
	}
}

func TestDeleteRequiresConditions(t *testing.T) {
	if _, _, err := DeleteFrom("matches").ToSQL(); err == nil {
		t.Fatal("ToSQL() without conditions: want error")
	}

	sql, args, err := DeleteFrom("matches").Where(Eq("id", "m1")).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}
	if sql != "DELETE FROM matches WHERE id = $1" {
		t.Fatalf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != "m1" {
		t.Fatalf("args = %v", args)
	}
}

func TestInEmptyValuesNeverMatches(t *testing.T) {
	sql, args, err := Select("id").From("decks").Where(In("expansion", nil)).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}
	if sql != "SELECT id FROM decks WHERE 1=0" {
		t.Fatalf("sql = %q", sql)
	}
	if len(args) != 0 {
		t.Fatalf("args = %v", args)
	}
}

func TestInsertModelUsesDBTags(t *testing.T) {
	type row struct {
		ID     string `db:"id"`
		Format string `db:"format"`
		Skip   string `db:"-"`
	}

	sql, args, err := InsertModel("matches", row{ID: "m1", Format: "archon"}, "")
	if err != nil {
		t.Fatalf("InsertModel() error: %v", err)
	}
	if sql != "INSERT INTO matches (id, format) VALUES ($1, $2)" {
		t.Fatalf("sql = %q", sql)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v", args)
	}
}
