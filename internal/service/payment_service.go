package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/infra/payment"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentGateway 金流供應商
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, idempotencyKey string) (*payment.Intent, error)
}

type IPaymentService interface {
	// CreateIntent amount 為主幣單位，必須為正且最多兩位小數
	//
	// 錯誤:
	//   - 400: 金額不合法，不會呼叫供應商
	//   - 502: 供應商失敗，不自動重試
	CreateIntent(ctx context.Context, userID string, amount decimal.Decimal, idempotencyKey string) (*payment.Intent, error)
}

type PaymentService struct {
	gateway PaymentGateway
	logger  zerolog.Logger
}

func NewPaymentService(gateway PaymentGateway, logger zerolog.Logger) *PaymentService {
	return &PaymentService{gateway: gateway, logger: logger}
}

func (s *PaymentService) CreateIntent(ctx context.Context, userID string, amount decimal.Decimal, idempotencyKey string) (*payment.Intent, error) {
	if _, err := payment.ToMinorUnits(amount); err != nil {
		return nil, err
	}
	intent, err := s.gateway.CreateIntent(ctx, amount, idempotencyKey)
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.PaymentProvider("failed to create payment intent", err)
		}
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("amount", amount.String()).
			Msg("create payment intent failed")
		return nil, err
	}
	return intent, nil
}
