package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/model"
	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/pkg/jwt"
	"github.com/qs3c/matcharestock/internal/pkg/oauth"
	"github.com/qs3c/matcharestock/internal/repository"
)

const (
	ResetTokenPrefix = "auth:reset:"
	ResetTokenTTL    = 30 * time.Minute
)

type AuthService struct {
	userRepo  *repository.UserRepository
	cfg       *config.Config
	emails    *email.Service
	providers map[string]oauth.Provider
	states    *oauth.StateStore
	resets    *oauth.StateStore
	now       func() time.Time
}

func NewAuthService(
	userRepo *repository.UserRepository,
	cfg *config.Config,
	emails *email.Service,
	states *oauth.StateStore,
	resets *oauth.StateStore,
) *AuthService {
	s := &AuthService{
		userRepo:  userRepo,
		cfg:       cfg,
		emails:    emails,
		providers: map[string]oauth.Provider{},
		states:    states,
		resets:    resets,
		now:       time.Now,
	}
	if gh := cfg.OAuth.Github; gh.ClientID != "" {
		s.RegisterProvider(oauth.NewGithubOAuth(gh.ClientID, gh.ClientSecret, gh.RedirectURI))
	}
	if g := cfg.OAuth.Google; g.ClientID != "" {
		s.RegisterProvider(oauth.NewGoogleOAuth(g.ClientID, g.ClientSecret, g.RedirectURI))
	}
	return s
}

// RegisterProvider 注册 OAuth 登录提供商
func (s *AuthService) RegisterProvider(p oauth.Provider) {
	s.providers[p.Name()] = p
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.ExistsByEmail(addr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifyCode, err := generateRandomCode(32)
	if err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	expiresAt := s.now().Add(24 * time.Hour)
	user := &model.User{
		Email:                 &addr,
		PasswordHash:          &passwordStr,
		UserType:              model.UserTypeFree,
		VerificationCode:      &verifyCode,
		VerificationExpiresAt: &expiresAt,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	// 开发环境自动验证邮箱
	if s.cfg.Server.Mode == "debug" {
		if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"email_verified": true}); err != nil {
			return nil, err
		}
	} else if err := s.emails.SendVerificationCode(ctx, addr, verifyCode); err != nil {
		slog.Error("failed to send verification email", "user_id", user.ID, "error", err)
	}

	return &dto.RegisterResponse{UserID: user.ID}, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified && s.cfg.Server.Mode != "debug" {
		return nil, ErrEmailNotVerified
	}

	return s.loginResponse(user)
}

// VerifyEmail 验证邮箱
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByVerificationCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerifyCode
		}
		return nil, err
	}

	if user.VerificationExpiresAt == nil || s.now().After(*user.VerificationExpiresAt) {
		return nil, ErrInvalidVerifyCode
	}

	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationExpiresAt = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return s.loginResponse(user)
}

// ForgotPassword emails a single-use reset link. Unknown addresses are not
// reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, addr string) error {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(addr)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.resets.GenerateState(ctx, strconv.FormatInt(user.ID, 10))
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/auth/update-password?token=%s",
		strings.TrimRight(s.cfg.App.SiteURL, "/"), url.QueryEscape(token))
	if err := s.emails.SendPasswordReset(ctx, user.EmailAddress(), link); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// ResetPassword 使用重置令牌设置新密码
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	value, err := s.resets.ValidateState(ctx, req.Token)
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidToken) || errors.Is(err, oauth.ErrEmptyToken) {
			return ErrInvalidResetToken
		}
		return err
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	// 能收到重置邮件即证明邮箱有效
	return s.userRepo.UpdateFields(userID, map[string]interface{}{
		"password_hash":  string(hashed),
		"email_verified": true,
	})
}

// OAuthURL 生成第三方登录地址，state 存入 Redis
func (s *AuthService) OAuthURL(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrOAuthNotConfigured
	}
	state, err := s.states.GenerateState(ctx, provider)
	if err != nil {
		return "", err
	}
	return p.AuthURL(state), nil
}

// OAuthCallback consumes the state, resolves the identity and logs the user in.
// An existing account with the same email is linked to the provider.
func (s *AuthService) OAuthCallback(ctx context.Context, provider, code, state string) (*dto.LoginResponse, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrOAuthNotConfigured
	}
	stored, err := s.states.ValidateState(ctx, state)
	if err != nil || stored != provider {
		return nil, ErrInvalidOAuthState
	}

	identity, err := p.Identify(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to identify %s user: %w", provider, err)
	}

	user, err := s.findOrCreateOAuthUser(identity)
	if err != nil {
		return nil, err
	}
	return s.loginResponse(user)
}

func (s *AuthService) findOrCreateOAuthUser(id *oauth.Identity) (*model.User, error) {
	lookup := s.userRepo.GetByGithubID
	column := "github_id"
	if id.Provider == oauth.ProviderGoogle {
		lookup = s.userRepo.GetByGoogleID
		column = "google_id"
	}

	user, err := lookup(id.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if id.Email != "" {
		user, err = s.userRepo.GetByEmail(strings.ToLower(id.Email))
		if err == nil {
			if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
				column:           id.ID,
				"email_verified": true,
			}); err != nil {
				return nil, err
			}
			return s.userRepo.GetByID(user.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	providerID := id.ID
	user = &model.User{
		UserType:      model.UserTypeFree,
		EmailVerified: true, // OAuth 用户默认已验证
	}
	if id.Provider == oauth.ProviderGoogle {
		user.GoogleID = &providerID
	} else {
		user.GithubID = &providerID
	}
	if id.Email != "" {
		addr := strings.ToLower(id.Email)
		user.Email = &addr
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) loginResponse(user *model.User) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  buildUserInfo(user),
	}, nil
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(id int64) (*model.User, error) {
	return s.userRepo.GetByID(id)
}

func buildUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:            user.ID,
		Email:         user.EmailAddress(),
		UserType:      user.UserType,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
