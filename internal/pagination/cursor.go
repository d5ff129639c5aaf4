package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cursor tokens are base64("<hexID>_<unixMilli>"). The id is the keyset bound
// for the next query; the timestamp is carried for debuggability only. Clients
// must treat the token as opaque.

// Encode builds the cursor token for a record.
func Encode(id primitive.ObjectID, createdAt time.Time) string {
	raw := fmt.Sprintf("%s_%d", id.Hex(), createdAt.UnixMilli())
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses a cursor token back into its id bound.
func Decode(cursor string) (primitive.ObjectID, time.Time, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return primitive.NilObjectID, time.Time{}, fmt.Errorf("malformed cursor: %w", err)
	}

	parts := strings.SplitN(string(raw), "_", 2)
	if len(parts) != 2 {
		return primitive.NilObjectID, time.Time{}, fmt.Errorf("malformed cursor: missing separator")
	}

	id, err := primitive.ObjectIDFromHex(parts[0])
	if err != nil {
		return primitive.NilObjectID, time.Time{}, fmt.Errorf("malformed cursor id: %w", err)
	}

	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return primitive.NilObjectID, time.Time{}, fmt.Errorf("malformed cursor timestamp: %w", err)
	}

	return id, time.UnixMilli(millis), nil
}

// DecodeBound returns the id bound from an optional cursor. An empty cursor
// yields a nil bound (first page).
func DecodeBound(cursor string) (*primitive.ObjectID, error) {
	if cursor == "" {
		return nil, nil
	}
	id, _, err := Decode(cursor)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
