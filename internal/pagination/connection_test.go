package pagination

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type record struct {
	ID        primitive.ObjectID
	CreatedAt time.Time
}

func makeRecords(n int) []record {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	records := make([]record, n)
	for i := 0; i < n; i++ {
		// Newest first, matching the repository sort order.
		records[i] = record{ID: primitive.NewObjectID(), CreatedAt: base.Add(-time.Duration(i) * time.Minute)}
	}
	return records
}

func recordCursor(r record) string {
	return Encode(r.ID, r.CreatedAt)
}

func TestApplyTrimsOverfetch(t *testing.T) {
	records := makeRecords(4)

	conn := Apply(records, 3, recordCursor)

	if len(conn.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(conn.Edges))
	}
	if !conn.PageInfo.HasNextPage {
		t.Error("HasNextPage = false, want true")
	}
	if conn.PageInfo.EndCursor != recordCursor(records[2]) {
		t.Errorf("EndCursor = %q, want cursor of the last trimmed edge", conn.PageInfo.EndCursor)
	}
}

func TestApplyExactPage(t *testing.T) {
	records := makeRecords(3)

	conn := Apply(records, 3, recordCursor)

	if len(conn.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(conn.Edges))
	}
	if conn.PageInfo.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
}

func TestApplyEmpty(t *testing.T) {
	conn := Apply([]record{}, 5, recordCursor)

	if len(conn.Edges) != 0 {
		t.Fatalf("edges = %d, want 0", len(conn.Edges))
	}
	if conn.PageInfo.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
	if conn.PageInfo.EndCursor != "" {
		t.Errorf("EndCursor = %q, want empty", conn.PageInfo.EndCursor)
	}
}

func TestApplyZeroLimit(t *testing.T) {
	// A zero-limit request still fetched limit+1 = 1 row; the connection must
	// report that more exists without yielding edges.
	conn := Apply(makeRecords(1), 0, recordCursor)

	if len(conn.Edges) != 0 {
		t.Fatalf("edges = %d, want 0", len(conn.Edges))
	}
	if !conn.PageInfo.HasNextPage {
		t.Error("HasNextPage = false, want true")
	}
}

// TestPagingWalk pages through a fixed dataset the way a client would,
// checking that every record is seen exactly once and in order.
func TestPagingWalk(t *testing.T) {
	records := makeRecords(10)
	const pageSize = 3

	// fetch mimics a keyset repository: rows strictly after the bound,
	// limit+1 of them.
	fetch := func(before *primitive.ObjectID, limit int64) []record {
		start := 0
		if before != nil {
			for i, r := range records {
				if r.ID == *before {
					start = i + 1
					break
				}
			}
		}
		end := start + int(limit) + 1
		if end > len(records) {
			end = len(records)
		}
		return records[start:end]
	}

	var seen []record
	cursor := ""
	for page := 0; ; page++ {
		if page > len(records) {
			t.Fatal("paging did not terminate")
		}

		before, err := DecodeBound(cursor)
		if err != nil {
			t.Fatalf("DecodeBound(%q) returned error: %v", cursor, err)
		}

		conn := Apply(fetch(before, pageSize), pageSize, recordCursor)
		for _, edge := range conn.Edges {
			seen = append(seen, edge.Node)
		}
		if !conn.PageInfo.HasNextPage {
			break
		}
		cursor = conn.PageInfo.EndCursor
	}

	if len(seen) != len(records) {
		t.Fatalf("walked %d records, want %d", len(seen), len(records))
	}
	for i := range records {
		if seen[i].ID != records[i].ID {
			t.Fatalf("record %d out of order: got %s, want %s", i, seen[i].ID.Hex(), records[i].ID.Hex())
		}
	}
}

func TestApplyCursorPerEdge(t *testing.T) {
	records := makeRecords(2)
	conn := Apply(records, 5, recordCursor)

	for i, edge := range conn.Edges {
		want := recordCursor(records[i])
		if edge.Cursor != want {
			t.Errorf("edge %d cursor = %q, want %q", i, edge.Cursor, want)
		}
	}

	// Cursors must round-trip to their record's id.
	for i, edge := range conn.Edges {
		id, _, err := Decode(edge.Cursor)
		if err != nil {
			t.Fatalf("edge %d cursor did not decode: %v", i, err)
		}
		if id != records[i].ID {
			t.Errorf("edge %d cursor decodes to %s, want %s", i, id.Hex(), records[i].ID.Hex())
		}
	}
}
