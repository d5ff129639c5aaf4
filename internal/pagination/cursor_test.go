package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCursorRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	createdAt := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

	token := Encode(id, createdAt)

	gotID, gotTime, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if gotID != id {
		t.Errorf("decoded id = %s, want %s", gotID.Hex(), id.Hex())
	}
	if !gotTime.Equal(createdAt) {
		t.Errorf("decoded time = %v, want %v", gotTime, createdAt)
	}
}

func TestDecodeRejectsMalformedCursors(t *testing.T) {
	cases := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"missing separator", base64.StdEncoding.EncodeToString([]byte("abcdef"))},
		{"bad object id", base64.StdEncoding.EncodeToString([]byte("zzzz_1700000000000"))},
		{"bad timestamp", base64.StdEncoding.EncodeToString([]byte(primitive.NewObjectID().Hex() + "_notanumber"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(tc.cursor); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tc.cursor)
			}
		})
	}
}

func TestDecodeBound(t *testing.T) {
	bound, err := DecodeBound("")
	if err != nil {
		t.Fatalf("DecodeBound(\"\") returned error: %v", err)
	}
	if bound != nil {
		t.Errorf("empty cursor bound = %v, want nil", bound)
	}

	id := primitive.NewObjectID()
	bound, err = DecodeBound(Encode(id, time.Now()))
	if err != nil {
		t.Fatalf("DecodeBound returned error: %v", err)
	}
	if bound == nil || *bound != id {
		t.Errorf("bound = %v, want %s", bound, id.Hex())
	}

	if _, err := DecodeBound("garbage"); err == nil {
		t.Error("DecodeBound(\"garbage\") succeeded, want error")
	}
}
