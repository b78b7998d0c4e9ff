package transport

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	IsAdmin bool `json:"is_admin"`
}

type RedeemLinkRequest struct {
	Token string `json:"token"`
}

type AdminLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ForceLogoutResponse struct {
	UserID        string `json:"user_id"`
	RevokedTokens int64  `json:"revoked_tokens"`
}
