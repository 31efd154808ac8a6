package service

import "errors"

var (
	ErrEmailExists        = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidVerifyCode  = errors.New("verification code is invalid or expired")
	ErrInvalidResetToken  = errors.New("reset link is invalid or expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrOAuthNotConfigured = errors.New("oauth provider is not configured")
	ErrInvalidOAuthState  = errors.New("invalid oauth state")

	ErrUnknownBrand          = errors.New("unknown brand")
	ErrSubscriptionRequired  = errors.New("an active payment subscription is required")
	ErrNoPaymentSubscription = errors.New("no payment subscription found")
	ErrInvalidAccessCode     = errors.New("invalid access code")

	ErrAccessCodeNotConfigured = errors.New("access code not configured")
)
