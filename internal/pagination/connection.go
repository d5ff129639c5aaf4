package pagination

// Edge pairs a record with its cursor.
type Edge[T any] struct {
	Node   T      `json:"node"`
	Cursor string `json:"cursor"`
}

// PageInfo describes the page boundary.
type PageInfo struct {
	EndCursor   string `json:"endCursor,omitempty"`
	HasNextPage bool   `json:"hasNextPage"`
}

// Connection is the uniform paginated result shape.
type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// Apply turns a limit+1 fetch into a Connection. The repository must have
// requested limit+1 rows sorted by the cursor field; the extra row, when
// present, only signals that another page exists and is trimmed here.
// A limit of 0 returns no edges with HasNextPage reporting whether any row
// exists under the filter.
func Apply[T any](items []T, limit int64, cursorOf func(T) string) Connection[T] {
	hasNext := int64(len(items)) > limit
	if hasNext {
		items = items[:limit]
	}

	edges := make([]Edge[T], len(items))
	for i, item := range items {
		edges[i] = Edge[T]{Node: item, Cursor: cursorOf(item)}
	}

	info := PageInfo{HasNextPage: hasNext}
	if len(edges) > 0 {
		info.EndCursor = edges[len(edges)-1].Cursor
	}

	return Connection[T]{Edges: edges, PageInfo: info}
}
