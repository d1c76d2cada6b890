package domain

// ============================================================
// Auth: editor login
// ============================================================

// Role names carried in access tokens.
const (
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}
