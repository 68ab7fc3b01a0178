package rocketapi

import (
	"strings"
)

const (
	// DefaultBaseURL is the RocketAPI base URL
	DefaultBaseURL = "https://v1.rocketapi.io"

	// UserInfoEndpoint resolves a username to a user id
	UserInfoEndpoint = "/instagram/user/get_info"

	// FollowersEndpoint lists one page of a user's followers
	FollowersEndpoint = "/instagram/user/get_followers"
)

// endpointURL joins the base URL and an endpoint path
func endpointURL(baseURL, endpoint string) string {
	return strings.TrimRight(baseURL, "/") + endpoint
}

// SanitizeUsername trims whitespace, a leading @ and trailing slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")
	return username
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}
