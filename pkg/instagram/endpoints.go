package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint resolves a username to a profile
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// DestroyEndpoint withdraws a follow request or unfollows; takes a user id
	DestroyEndpoint = "/api/v1/friendships/destroy/%s/"

	// SessionEndpoint returns the logged-in account's edit form and fails
	// without a valid session
	SessionEndpoint = "/api/v1/accounts/edit/web_form_data/"

	// DefaultAppID is the X-IG-App-ID sent by the web client
	DefaultAppID = "936619743392459"
)

// GetProfileURL constructs the URL for fetching a user's profile
func GetProfileURL(baseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", baseURL, ProfileEndpoint, params.Encode())
}

// GetDestroyURL constructs the URL that withdraws a request to userID
func GetDestroyURL(baseURL, userID string) string {
	return baseURL + fmt.Sprintf(DestroyEndpoint, url.PathEscape(userID))
}

// GetSessionURL constructs the session check URL
func GetSessionURL(baseURL string) string {
	return baseURL + SessionEndpoint
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// letters, digits, periods and underscores only
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

// SanitizeUsername strips a leading @ and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
