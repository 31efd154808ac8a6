package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/internal/model"
	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/payment"
	"github.com/qs3c/matcharestock/internal/repository"
)

type BillingService struct {
	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentSubscriptionRepository
	eventRepo   *repository.StripeEventRepository
	gateway     payment.Gateway
	siteURL     string
	now         func() time.Time
}

func NewBillingService(
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentSubscriptionRepository,
	eventRepo *repository.StripeEventRepository,
	gateway payment.Gateway,
	siteURL string,
) *BillingService {
	return &BillingService{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		gateway:     gateway,
		siteURL:     strings.TrimRight(siteURL, "/"),
		now:         time.Now,
	}
}

func (s *BillingService) getUser(userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateCheckout 创建 Premium 订阅的结账会话，必要时先创建 Stripe 客户
func (s *BillingService) CreateCheckout(ctx context.Context, userID int64) (string, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return "", err
	}

	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, user.EmailAddress(), user.ID)
		if err != nil {
			return "", err
		}
		if err := s.userRepo.SetStripeCustomer(user.ID, customerID); err != nil {
			return "", err
		}
	}

	return s.gateway.CreateCheckoutSession(ctx, &payment.CheckoutRequest{
		CustomerID: customerID,
		UserID:     user.ID,
		SuccessURL: s.siteURL + "/dashboard?session_id={CHECKOUT_SESSION_ID}&success=true",
		CancelURL:  s.siteURL + "/dashboard?canceled=true",
	})
}

// CreatePortal 打开 Stripe 账单门户
func (s *BillingService) CreatePortal(ctx context.Context, userID int64) (string, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return "", err
	}

	customerID := ""
	if user.StripeCustomerID != nil {
		customerID = *user.StripeCustomerID
	}
	if customerID == "" {
		sub, err := s.currentSubscription(userID)
		if err != nil {
			return "", err
		}
		if sub == nil || sub.StripeCustomerID == "" {
			return "", ErrNoPaymentSubscription
		}
		customerID = sub.StripeCustomerID
	}

	return s.gateway.CreatePortalSession(ctx, customerID, s.siteURL+"/dashboard")
}

func subscriptionInfo(sub *model.PaymentSubscription) *dto.PaymentSubscriptionInfo {
	if sub == nil {
		return nil
	}
	return &dto.PaymentSubscriptionInfo{
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
}

// currentSubscription returns the row that decides access, or nil when the
// user never subscribed. A stale row for an old subscription never hides
// an entitled one.
func (s *BillingService) currentSubscription(userID int64) (*model.PaymentSubscription, error) {
	subs, err := s.paymentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return model.CurrentSubscription(subs, s.now()), nil
}

// syncTier 根据用户的全部订阅重新计算等级
func (s *BillingService) syncTier(userID int64) error {
	subs, err := s.paymentRepo.ListByUser(userID)
	if err != nil {
		return err
	}
	tier := model.UserTypeFree
	if model.HasPremiumStatus(subs) {
		tier = model.UserTypePremium
	}
	return s.userRepo.SetUserType(userID, tier, s.now())
}

// Status computes the effective premium status of a user.
func (s *BillingService) Status(ctx context.Context, userID int64) (*dto.PaymentStatusResponse, error) {
	sub, err := s.currentSubscription(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &dto.PaymentStatusResponse{Reason: "No payment subscription found"}, nil
	}
	ok, reason := sub.Entitlement(s.now())
	return &dto.PaymentStatusResponse{
		IsSubscribed: ok,
		Reason:       reason,
		Subscription: subscriptionInfo(sub),
	}, nil
}

// PaymentSubscription 返回原始订阅记录
func (s *BillingService) PaymentSubscription(ctx context.Context, userID int64) (*dto.PaymentSubscriptionResponse, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	sub, err := s.currentSubscription(userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.PaymentSubscriptionResponse{
		UserType:     user.UserType,
		Subscription: subscriptionInfo(sub),
	}
	if sub != nil {
		resp.HasActivePayment = model.IsPremiumStatus(sub.Status)
	}
	return resp, nil
}

func (s *BillingService) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	sub, err := s.currentSubscription(userID)
	if err != nil || sub == nil {
		return false, err
	}
	ok, _ := sub.Entitlement(s.now())
	return ok, nil
}

// HandleEvent reconciles a verified Stripe event. Events already recorded
// are skipped; every write is keyed by the Stripe subscription id so a
// replay converges on the same state.
func (s *BillingService) HandleEvent(ctx context.Context, ev *payment.Event) error {
	seen, err := s.eventRepo.Exists(ev.ID)
	if err != nil {
		return err
	}
	if seen {
		slog.Info("stripe event already processed", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	switch ev.Type {
	case payment.EventCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, ev)
	case payment.EventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ev)
	case payment.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ev)
	case payment.EventInvoicePaymentFailed:
		err = s.handleInvoicePaymentFailed(ev)
	default:
		slog.Debug("ignoring stripe event", "type", ev.Type)
	}
	if err != nil {
		return fmt.Errorf("handle %s: %w", ev.Type, err)
	}

	return s.eventRepo.Record(ev.ID, ev.Type, ev.Body, s.now())
}

func (s *BillingService) handleCheckoutCompleted(ctx context.Context, ev *payment.Event) error {
	sess, err := payment.DecodeCheckoutSession(ev.Raw)
	if err != nil {
		return err
	}
	if !sess.IsSubscription() {
		return nil
	}

	sub, err := s.gateway.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return err
	}

	userID, err := s.resolveUser(sess.UserID, sess.CustomerID)
	if err != nil {
		return err
	}

	if err := s.upsert(userID, sub); err != nil {
		return err
	}
	if sess.CustomerID != "" {
		if err := s.userRepo.SetStripeCustomer(userID, sess.CustomerID); err != nil {
			return err
		}
	}
	slog.Info("checkout completed", "user_id", userID, "subscription", sub.ID, "status", sub.Status)
	return s.syncTier(userID)
}

func (s *BillingService) handleSubscriptionUpdated(ev *payment.Event) error {
	sub, err := payment.DecodeSubscription(ev.Raw)
	if err != nil {
		return err
	}

	existing, err := s.paymentRepo.GetByStripeID(sub.ID)
	var userID int64
	switch {
	case err == nil:
		userID = existing.UserID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 更新事件先于结账事件到达
		userID, err = s.resolveUser(sub.UserID, sub.CustomerID)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if err := s.upsert(userID, sub); err != nil {
		return err
	}
	return s.syncTier(userID)
}

func (s *BillingService) handleSubscriptionDeleted(ev *payment.Event) error {
	sub, err := payment.DecodeSubscription(ev.Raw)
	if err != nil {
		return err
	}

	existing, err := s.paymentRepo.GetByStripeID(sub.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Warn("deleted subscription not found", "subscription", sub.ID)
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.paymentRepo.UpdateByStripeID(sub.ID, map[string]interface{}{
		"status": model.PaymentStatusCanceled,
	}); err != nil {
		return err
	}
	return s.syncTier(existing.UserID)
}

func (s *BillingService) handleInvoicePaymentFailed(ev *payment.Event) error {
	subID, _, err := payment.DecodeInvoice(ev.Raw)
	if err != nil {
		return err
	}
	if subID == "" {
		return nil
	}
	n, err := s.paymentRepo.UpdateByStripeID(subID, map[string]interface{}{
		"status": model.PaymentStatusPastDue,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		slog.Warn("invoice for unknown subscription", "subscription", subID)
	}
	return nil
}

// resolveUser finds the user from checkout metadata, then by Stripe customer.
func (s *BillingService) resolveUser(metaUserID, customerID string) (int64, error) {
	if metaUserID != "" {
		id, err := strconv.ParseInt(metaUserID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid user_id metadata %q: %w", metaUserID, err)
		}
		if _, err := s.getUser(id); err != nil {
			return 0, err
		}
		return id, nil
	}
	if customerID != "" {
		user, err := s.userRepo.GetByStripeCustomerID(customerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	}
	return 0, ErrUserNotFound
}

func (s *BillingService) upsert(userID int64, sub *payment.Subscription) error {
	row := &model.PaymentSubscription{
		UserID:               userID,
		StripeCustomerID:     sub.CustomerID,
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if !sub.CurrentPeriodStart.IsZero() {
		start := sub.CurrentPeriodStart
		row.CurrentPeriodStart = &start
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd
		row.CurrentPeriodEnd = &end
	}
	return s.paymentRepo.Upsert(row)
}

// DeleteAccount cancels billing and erases the user with all subscriptions.
// Stripe cancellation errors are logged so a stale subscription never blocks
// account deletion.
func (s *BillingService) DeleteAccount(ctx context.Context, userID int64) error {
	if _, err := s.getUser(userID); err != nil {
		return err
	}

	subs, err := s.paymentRepo.ListByUser(userID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.Status == model.PaymentStatusCanceled {
			continue
		}
		if err := s.gateway.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
			slog.Warn("failed to cancel stripe subscription",
				"user_id", userID,
				"subscription", sub.StripeSubscriptionID,
				"error", err)
		}
	}

	if err := s.userRepo.DeleteWithSubscriptions(userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	slog.Info("account deleted", "user_id", userID)
	return nil
}
