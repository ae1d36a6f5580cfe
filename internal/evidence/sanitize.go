package evidence

// Metadata caps. Arbitrary caller metadata is bounded before it enters the
// fingerprint or the audit trail.
const (
	maxMetadataDepth  = 6
	maxStringLength   = 50
	maxCollectionSize = 50
)

// sanitizeMetadata bounds an arbitrary metadata tree: depth capped at
// maxMetadataDepth, strings truncated to maxStringLength, collections
// truncated to maxCollectionSize entries, and any value outside the closed
// kind set (string, bool, number, map, slice, nil) dropped.
func sanitizeMetadata(metadata map[string]any) map[string]any {
	out, _ := sanitizeValue(metadata, 0).(map[string]any)
	return out
}

func sanitizeValue(v any, depth int) any {
	if depth >= maxMetadataDepth {
		return nil
	}
	switch val := v.(type) {
	case string:
		if len(val) > maxStringLength {
			return val[:maxStringLength]
		}
		return val
	case bool, float64, float32, int, int32, int64, nil:
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		count := 0
		for k, item := range val {
			if count >= maxCollectionSize {
				break
			}
			if len(k) > maxStringLength {
				k = k[:maxStringLength]
			}
			if cleaned := sanitizeValue(item, depth+1); cleaned != nil {
				out[k] = cleaned
			}
			count++
		}
		return out
	case []any:
		limit := len(val)
		if limit > maxCollectionSize {
			limit = maxCollectionSize
		}
		out := make([]any, 0, limit)
		for _, item := range val[:limit] {
			if cleaned := sanitizeValue(item, depth+1); cleaned != nil {
				out = append(out, cleaned)
			}
		}
		return out
	default:
		return nil
	}
}
