package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const DefaultCurrency = "inr"

var (
	minorUnitFactor = decimal.NewFromInt(100)
	// MaxAmount 單筆上限，換算後為 stripe 允許的八位數最小單位
	MaxAmount = decimal.RequireFromString("999999.99")
)

// Intent 金流商回傳的付款憑證
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type StripeGatewayConfig struct {
	SecretKey string
	// APIURL 測試時指向假的 stripe server，空字串使用官方位址
	APIURL   string
	Currency string
	Timeout  time.Duration
}

// StripeGateway 建立 payment intent，不做自動重試
type StripeGateway struct {
	api      *client.API
	currency string
}

func NewStripeGateway(cfg StripeGatewayConfig) *StripeGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	return &StripeGateway{
		api:      client.New(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend}),
		currency: currency,
	}
}

// ToMinorUnits 主幣單位轉成最小單位(×100)，超過兩位小數視為錯誤
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, apperr.Validation("invalid amount", apperr.FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if amount.GreaterThan(MaxAmount) {
		return 0, apperr.Validation("invalid amount", apperr.FieldError{Field: "amount", Message: "must be at most " + MaxAmount.StringFixed(2)})
	}
	minor := amount.Mul(minorUnitFactor)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, apperr.Validation("invalid amount", apperr.FieldError{Field: "amount", Message: "at most 2 decimal places"})
	}
	return minor.IntPart(), nil
}

// CreateIntent 金額在呼叫金流商之前驗證，idempotencyKey 會原樣轉給 stripe
func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, idempotencyKey string) (*Intent, error) {
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperr.PaymentProvider("payment provider call cancelled", errors.Join(ctxErr, err))
		}
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return nil, apperr.PaymentProvider("payment provider rejected the request", stripeErr)
		}
		return nil, apperr.PaymentProvider("payment provider unavailable", err)
	}
	if pi.ClientSecret == "" {
		return nil, apperr.PaymentProvider("payment provider returned no client secret", nil)
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       minor,
		Currency:     g.currency,
	}, nil
}
