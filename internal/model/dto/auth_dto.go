package dto

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse 令牌对
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// DevTokenRequest 仅开发环境，直接为已有用户签发令牌
type DevTokenRequest struct {
	UserID int64 `json:"user_id,string"`
}

type UpdatePhoneRequest struct {
	Phone string `json:"phone"`
}

// MeResponse 当前用户
type MeResponse struct {
	ID          int64  `json:"id,string"`
	Nickname    string `json:"nickname"`
	Role        string `json:"role"`
	Timezone    string `json:"timezone"`
	HasPhone    bool   `json:"has_phone"`
	CaregiverID *int64 `json:"caregiver_id,omitempty,string"`
}
