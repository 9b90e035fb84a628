package instagram

// ProfileResponse is the web_profile_info response
type ProfileResponse struct {
	RequiresToLogin bool        `json:"requires_to_login"`
	Data            ProfileData `json:"data"`
	Status          string      `json:"status"`
}

// ProfileData wraps the user information in the response
type ProfileData struct {
	User *User `json:"user"`
}

// User is the subset of a profile the client needs
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsPrivate bool   `json:"is_private"`
}

// FriendshipResponse is returned by friendship mutations
type FriendshipResponse struct {
	FriendshipStatus FriendshipStatus `json:"friendship_status"`
	Status           string           `json:"status"`
	Message          string           `json:"message"`
}

// FriendshipStatus describes the relationship after a mutation
type FriendshipStatus struct {
	Following       bool `json:"following"`
	OutgoingRequest bool `json:"outgoing_request"`
	IsPrivate       bool `json:"is_private"`
}

// SessionResponse is the account edit form of the logged-in user
type SessionResponse struct {
	FormData struct {
		Username string `json:"username"`
	} `json:"form_data"`
	Status string `json:"status"`
}

// apiError is the error body Instagram sends with 4xx responses
type apiError struct {
	Message      string `json:"message"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
	Spam         bool   `json:"spam"`
	RequireLogin bool   `json:"require_login"`
}
