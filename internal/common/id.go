package common

import (
	"github.com/google/uuid"
)

// NewStateID generates a unique analysis state ID with the "state_" prefix
// Format: state_<uuid>
func NewStateID() string {
	return "state_" + uuid.New().String()
}

// NewSegmentID generates a unique customer segment ID with the "seg_" prefix
// Format: seg_<uuid>
func NewSegmentID() string {
	return "seg_" + uuid.New().String()
}

// ShortID returns the first 8 characters of the random portion of a prefixed
// ID, used for human-readable directory names.
func ShortID(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == '_' {
			id = id[i+1:]
			break
		}
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
