package entity

// UserLoginData is the identity extracted from a verified bearer token.
// User management itself lives in the auth service; this projection is all
// the monitoring core needs.
type UserLoginData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
