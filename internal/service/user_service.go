package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/repository"
)

type UserService struct {
	userRepo *repository.UserRepository
	subRepo  *repository.BrandSubscriptionRepository
}

func NewUserService(userRepo *repository.UserRepository, subRepo *repository.BrandSubscriptionRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		subRepo:  subRepo,
	}
}

// GetProfile 获取用户详情，包含已订阅的品牌
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	brands, err := s.subRepo.ListActiveBrands(userID)
	if err != nil {
		return nil, err
	}

	info := buildUserInfo(user)
	info.Brands = brands
	return info, nil
}
