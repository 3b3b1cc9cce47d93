package wire

import (
	"fmt"

	"github.com/chazu/polymodel/model"
)

// MarshalSnapshot serializes an instance snapshot.
func MarshalSnapshot(c Codec, s model.Snapshot) ([]byte, error) {
	return c.Marshal(s)
}

// UnmarshalSnapshot deserializes an instance snapshot. Integer field values
// come back as int64.
func UnmarshalSnapshot(c Codec, data []byte) (model.Snapshot, error) {
	var s model.Snapshot
	if err := c.Unmarshal(data, &s); err != nil {
		return model.Snapshot{}, fmt.Errorf("wire: unmarshal snapshot: %w", err)
	}
	for i := range s.Segments {
		for k, v := range s.Segments[i].Fields {
			s.Segments[i].Fields[k] = normalize(v)
		}
	}
	return s, nil
}
