package model

// User is an account as the backend knows it.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the authenticated identity of the current run.
// Email is best effort: the backend has no email, so it carries the login name.
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Image  string `json:"image,omitempty"`
}

// Profile is the bulk-load result: the caller and every list visible to them.
type Profile struct {
	User    User   `json:"user"`
	Owned   []List `json:"owned"`
	Invited []List `json:"invited"`
}

// SessionFor builds the session for a freshly authenticated user.
func SessionFor(u User, loginName string) Session {
	return Session{UserID: u.ID, Name: u.Name, Email: loginName}
}
