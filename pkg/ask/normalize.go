package ask

import (
	"encoding/json"
	"strconv"
)

// normalizeContextItems maps the server's mixed field naming
// (postId/post_id/id, postTitle/post_title/title) onto canonical
// ContextItems. Items sharing a post id are collapsed keeping the last
// occurrence, at the position of the first (insertion-order map
// semantics). Payloads that are not arrays report ok=false.
func normalizeContextItems(data string) ([]ContextItem, bool) {
	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	items := make([]ContextItem, 0, len(raw))
	index := make(map[string]int, len(raw))
	for _, entry := range raw {
		id := pickString(entry, "postId", "post_id", "id")
		if id == "" {
			continue
		}
		item := ContextItem{
			PostID:    id,
			PostTitle: pickString(entry, "postTitle", "post_title", "title"),
		}
		if at, seen := index[id]; seen {
			items[at] = item
			continue
		}
		index[id] = len(items)
		items = append(items, item)
	}
	return items, true
}

// pickString returns the first present key coerced to a string. Numeric
// ids are formatted without a fractional part.
func pickString(entry map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := entry[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			if t == float64(int64(t)) {
				return strconv.FormatInt(int64(t), 10)
			}
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}
