package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/internal/model"
)

var seq int64

func next() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	email := fmt.Sprintf("test_%d@example.com", next())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Email:         &email,
		PasswordHash:  &passwordHash,
		UserType:      model.UserTypeFree,
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithoutEmail 模拟没有邮箱的 OAuth 账号
func WithoutEmail() func(*model.User) {
	return func(u *model.User) {
		u.Email = nil
	}
}

// WithPassword 设置密码哈希
func WithPassword(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = &hash
	}
}

func WithUserType(userType string) func(*model.User) {
	return func(u *model.User) {
		u.UserType = userType
	}
}

func WithStripeCustomer(customerID string) func(*model.User) {
	return func(u *model.User) {
		u.StripeCustomerID = &customerID
	}
}

func WithGithubID(id string) func(*model.User) {
	return func(u *model.User) {
		u.GithubID = &id
	}
}

// WithUnverifiedEmail 设置未验证邮箱和验证码
func WithUnverifiedEmail(code string, expiresAt time.Time) func(*model.User) {
	return func(u *model.User) {
		u.EmailVerified = false
		u.VerificationCode = &code
		u.VerificationExpiresAt = &expiresAt
	}
}

// TestPaymentSubscription 创建支付订阅，默认在当前周期内有效
func TestPaymentSubscription(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.PaymentSubscription)) *model.PaymentSubscription {
	t.Helper()

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(29 * 24 * time.Hour)
	sub := &model.PaymentSubscription{
		UserID:               userID,
		StripeCustomerID:     fmt.Sprintf("cus_%d", next()),
		StripeSubscriptionID: fmt.Sprintf("sub_%d", next()),
		Status:               model.PaymentStatusActive,
		CurrentPeriodStart:   &start,
		CurrentPeriodEnd:     &end,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test payment subscription: %v", err)
	}

	return sub
}

func WithPaymentStatus(status string) func(*model.PaymentSubscription) {
	return func(s *model.PaymentSubscription) {
		s.Status = status
	}
}

// WithPeriod 设置计费周期
func WithPeriod(start, end time.Time) func(*model.PaymentSubscription) {
	return func(s *model.PaymentSubscription) {
		s.CurrentPeriodStart = &start
		s.CurrentPeriodEnd = &end
	}
}

func WithStripeSubscriptionID(id string) func(*model.PaymentSubscription) {
	return func(s *model.PaymentSubscription) {
		s.StripeSubscriptionID = id
	}
}

// TestBrandSubscription 创建品牌订阅，邮箱取用户邮箱
func TestBrandSubscription(t *testing.T, db *gorm.DB, user *model.User, brand string, active bool) *model.BrandSubscription {
	t.Helper()

	sub := &model.BrandSubscription{
		UserID:   user.ID,
		Brand:    brand,
		Email:    user.EmailAddress(),
		IsActive: true,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test brand subscription: %v", err)
	}
	// gorm 不会写入 bool 零值，单独更新
	if !active {
		if err := db.Model(sub).Update("is_active", false).Error; err != nil {
			t.Fatalf("Failed to deactivate brand subscription: %v", err)
		}
	}

	return sub
}

// TestProductStock 创建商品库存记录
func TestProductStock(t *testing.T, db *gorm.DB, brand, name, url string, inStock bool) *model.ProductStock {
	t.Helper()

	p := &model.ProductStock{
		Brand:       brand,
		ProductName: name,
		StockURL:    url,
		IsInStock:   inStock,
		LastChecked: time.Now().Add(-time.Hour),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	return p
}

// TestNotification 创建未发送的补货通知
func TestNotification(t *testing.T, db *gorm.DB, brand, name, url string, opts ...func(*model.RestockNotification)) *model.RestockNotification {
	t.Helper()

	n := &model.RestockNotification{
		Brand:       brand,
		ProductName: name,
		ProductURL:  url,
	}
	for _, opt := range opts {
		opt(n)
	}

	if err := db.Create(n).Error; err != nil {
		t.Fatalf("Failed to create test notification: %v", err)
	}

	return n
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.RestockNotification) {
	return func(n *model.RestockNotification) {
		n.CreatedAt = at
	}
}

// WithSent 标记为已发送
func WithSent(count int) func(*model.RestockNotification) {
	return func(n *model.RestockNotification) {
		now := time.Now().UTC()
		n.EmailSent = true
		n.SubscribersNotified = count
		n.SentAt = &now
	}
}
