package domain

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Metadata is the provider-owned channel metadata blob: a map from participant
// id to display name. It is the only place display names live for rendering
// and is rewritten wholesale on every membership change.
type Metadata map[string]string

// ParticipantIDs returns the numeric ids present in the blob, sorted.
// Keys that do not parse as ids are ignored.
func (m Metadata) ParticipantIDs() []int64 {
	ids := make([]int64, 0, len(m))
	for key := range m {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Encode renders the blob as JSON, used to overwrite a channel's display name.
func (m Metadata) Encode() string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}
