package rocketapi

import (
	"encoding/json"
	"strings"
)

// Cursor is an opaque pagination token. The empty cursor requests the first page
// and, when returned as Next, means no more pages.
type Cursor string

// Follower is one normalized follower record
type Follower struct {
	Username string
	ID       string
}

// Page is one normalized follower page
type Page struct {
	Followers []Follower
	Next      Cursor
	Envelope  EnvelopeKind
}

// userInfoRequest is the body of a get_info call
type userInfoRequest struct {
	Username string `json:"username"`
}

// followersRequest is the body of a get_followers call
type followersRequest struct {
	ID    interface{} `json:"id"`
	MaxID *string     `json:"max_id"`
}

func newFollowersRequest(userID string, cursor Cursor) followersRequest {
	req := followersRequest{ID: userIDValue(userID)}
	if cursor != "" {
		c := string(cursor)
		req.MaxID = &c
	}
	return req
}

// userIDValue sends numeric ids as JSON numbers and anything else as a string
func userIDValue(userID string) interface{} {
	if userID != "" && strings.Trim(userID, "0123456789") == "" {
		return json.Number(userID)
	}
	return userID
}
