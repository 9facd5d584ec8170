package constants

// for api auth
type ContextKey string

const (
	AuthorizationHeaderKey  ContextKey = "authorization"
	AuthorizationTypeBearer ContextKey = "bearer"
	AuthorizationPayloadKey ContextKey = "authorization_payload"
	AuthorizationErrorKey   ContextKey = "authorization_error"
)

type RequestID string

const (
	RequestIDKey    RequestID = "request_id"
	RequestIDHeader           = "X-Request-ID"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type ENV string

const (
	Dev  ENV = "development"
	Prod ENV = "production"
)

// 快照儲存的鍵
const (
	CartKeyPrefix     = "cart:"
	WishlistKeyPrefix = "wishlist:"
)

func CartKey(userID string) string {
	return CartKeyPrefix + userID
}

func WishlistKey(userID string) string {
	return WishlistKeyPrefix + userID
}

// 商品列表
const (
	DefaultPagingSize   = 12
	FeaturedProductSize = 8
)

// 限流範圍
const (
	RateLimitScopeOrder   = "order"
	RateLimitScopePayment = "payment"
)
