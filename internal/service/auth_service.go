package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hems-scheduler/backend/config"
	"hems-scheduler/backend/internal/dto"
	"hems-scheduler/backend/internal/model"
	"hems-scheduler/backend/internal/repository"
	"hems-scheduler/backend/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrAdminNotFound      = errors.New("管理员不存在")
	ErrWrongPassword      = errors.New("当前密码错误")
	ErrPasswordTooShort   = errors.New("新密码长度不能少于 6 位")
)

const minPasswordLen = 6

// TokenBlacklist 登出时吊销 Token（pkg/redis.Client 满足该接口）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 管理员认证业务接口
//
// 会话即签名 Token，带显式过期时间，服务端不保存会话表。
// 登出将 jti 写入 Redis 黑名单；Redis 未启用时 Token 自然过期。
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, adminID string) (*dto.AdminResponse, error)
	ChangePassword(ctx context.Context, adminID string, req *dto.ChangePasswordRequest) error
	SeedDefaultAdmin(ctx context.Context, seed config.AdminSeed) (bool, error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例，blacklist 可为 nil
func NewAuthService(repo *repository.Repository, jwtMgr *jwt.Manager, blacklist TokenBlacklist, logger *zap.Logger) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 查找管理员
	admin, err := s.repo.Admin.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询管理员失败", zap.Error(err))
		return nil, storageError(err)
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 签发 Token
	token, expiresAt, err := s.jwtMgr.GenerateToken(admin.AdminID, admin.Username)
	if err != nil {
		s.logger.Error("签发 Token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("管理员登录", zap.String("admin_id", admin.AdminID), zap.String("username", admin.Username))

	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.TTL().Seconds()),
		ExpiresAt:   formatTime(expiresAt),
		Admin:       toAdminResponse(admin),
	}, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, adminID string) (*dto.AdminResponse, error) {
	admin, err := s.getAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	resp := toAdminResponse(admin)
	return &resp, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, adminID string, req *dto.ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	admin, err := s.getAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	if err := s.repo.Admin.UpdatePassword(ctx, adminID, string(hash)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		s.logger.Error("更新密码失败", zap.String("admin_id", adminID), zap.Error(err))
		return storageError(err)
	}

	s.logger.Info("管理员修改密码", zap.String("admin_id", adminID))
	return nil
}

// ────────────────────── Seed ──────────────────────

// SeedDefaultAdmin 库中没有任何管理员时创建默认账号
func (s *authService) SeedDefaultAdmin(ctx context.Context, seed config.AdminSeed) (bool, error) {
	count, err := s.repo.Admin.Count(ctx)
	if err != nil {
		return false, storageError(err)
	}
	if count > 0 || seed.Username == "" || seed.Password == "" {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	admin := &model.AdminUser{
		Username:     seed.Username,
		Email:        normalizeEmail(seed.Email),
		PasswordHash: string(hash),
	}
	if err := s.repo.Admin.Create(ctx, admin); err != nil {
		return false, storageError(err)
	}

	s.logger.Warn("已创建默认管理员，请尽快修改密码", zap.String("username", admin.Username))
	return true, nil
}

func (s *authService) getAdmin(ctx context.Context, adminID string) (*model.AdminUser, error) {
	admin, err := s.repo.Admin.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		s.logger.Error("查询管理员失败", zap.String("admin_id", adminID), zap.Error(err))
		return nil, storageError(err)
	}
	return admin, nil
}

func toAdminResponse(admin *model.AdminUser) dto.AdminResponse {
	return dto.AdminResponse{
		ID:        admin.AdminID,
		Username:  admin.Username,
		Email:     admin.Email,
		CreatedAt: formatTime(admin.CreatedAt),
	}
}
