package qa

import "encoding/json"

// toStringMap round-trips v through JSON to get a generic map the
// reasoning prompt can marshal back into compact JSON, reusing each
// entity's own json tags instead of duplicating field lists here.
func toStringMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
