package service

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/repository"
)

// EntitlementChecker reports whether a user currently holds premium access.
type EntitlementChecker interface {
	IsSubscribed(ctx context.Context, userID int64) (bool, error)
}

type SubscriptionService struct {
	subRepo  *repository.BrandSubscriptionRepository
	userRepo *repository.UserRepository
	registry *brand.Registry
	billing  EntitlementChecker
	emails   *email.Service
}

func NewSubscriptionService(
	subRepo *repository.BrandSubscriptionRepository,
	userRepo *repository.UserRepository,
	registry *brand.Registry,
	billing EntitlementChecker,
	emails *email.Service,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		registry: registry,
		billing:  billing,
		emails:   emails,
	}
}

// List 返回用户已订阅的品牌
func (s *SubscriptionService) List(ctx context.Context, userID int64) ([]string, error) {
	return s.subRepo.ListActiveBrands(userID)
}

// Toggle flips the user's subscription for brandName and returns the new state.
// A welcome email is sent only when the subscription becomes active.
func (s *SubscriptionService) Toggle(ctx context.Context, userID int64, brandName string) (bool, error) {
	if !s.registry.Has(brandName) {
		return false, ErrUnknownBrand
	}
	if err := s.requirePremium(ctx, userID); err != nil {
		return false, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	active, err := s.subRepo.Toggle(userID, brandName, user.EmailAddress())
	if err != nil {
		return false, err
	}

	if active {
		s.sendWelcome(ctx, user.EmailAddress(), brandName)
	}
	return active, nil
}

// Grant activates several brands at once.
func (s *SubscriptionService) Grant(ctx context.Context, userID int64, brands []string) (*dto.GrantSubscriptionResponse, error) {
	for _, b := range brands {
		if !s.registry.Has(b) {
			return nil, ErrUnknownBrand
		}
	}
	if err := s.requirePremium(ctx, userID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := &dto.GrantSubscriptionResponse{Activated: []string{}, Already: []string{}}
	for _, b := range brands {
		already, err := s.subRepo.Activate(userID, b, user.EmailAddress())
		if err != nil {
			return nil, err
		}
		if already {
			resp.Already = append(resp.Already, b)
			continue
		}
		resp.Activated = append(resp.Activated, b)
		s.sendWelcome(ctx, user.EmailAddress(), b)
	}
	return resp, nil
}

func (s *SubscriptionService) requirePremium(ctx context.Context, userID int64) error {
	ok, err := s.billing.IsSubscribed(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSubscriptionRequired
	}
	return nil
}

func (s *SubscriptionService) sendWelcome(ctx context.Context, to, brandName string) {
	if to == "" || s.emails == nil {
		return
	}
	if err := s.emails.SendBrandWelcome(ctx, to, brandName); err != nil {
		slog.Warn("failed to send welcome email", "brand", brandName, "error", err)
	}
}
