package redis

import (
	"fmt"

	"github.com/mcoot/rpsduel/internal/model"
)

// Key prefix for all profile data
const keyPrefix = "rpsduel"

// profileKey returns the Redis key for a Profile (JSON, without friends)
func profileKey(id model.ParticipantID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}

// friendsKey returns the Redis key for the SET of a profile's friends
func friendsKey(id model.ParticipantID) string {
	return fmt.Sprintf("%s:friends:%s", keyPrefix, id)
}
