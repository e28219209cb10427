package domain

import (
	"strconv"
	"strings"
	"time"
)

// User is a read-only view of the directory owned by the CRUD layer. The chat
// core only needs names for channel metadata and search matching.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ChannelIdentity formats a user id as the member key the messaging provider
// knows that user by.
func ChannelIdentity(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
