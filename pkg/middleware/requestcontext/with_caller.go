package requestcontext

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type callerKey struct{}

const bearerPrefix = "Bearer "

// WithCaller resolves the caller address from an `Authorization: Bearer <jwt>` header.
// Tokens are HS256 signed with secret and carry the address as `sub`. Requests without the header
// pass through anonymously; a present but invalid token is rejected with 401.
func WithCaller(secret string) Option {
	key := []byte(secret)
	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return ctx, nil
		}
		if secret == "" || !strings.HasPrefix(header, bearerPrefix) {
			return nil, requestcontextError{
				status:  fiber.StatusUnauthorized,
				message: "invalid authorization header",
			}
		}

		caller, err := ParseCallerToken(key, strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			logger.DebugContext(ctx, "Rejected caller token",
				slog.String("event", "requestcontext/invalid_token"),
				slog.String("module", "requestcontext/with_caller"),
				slog.String("error", err.Error()),
			)
			return nil, requestcontextError{
				err:     err,
				status:  fiber.StatusUnauthorized,
				message: "invalid or expired token",
			}
		}

		ctx = context.WithValue(ctx, callerKey{}, caller)
		ctx = logger.WithContext(ctx, "caller", caller.String())
		return ctx, nil
	}
}

// GetCaller returns the authenticated caller and whether the request carried one.
func GetCaller(ctx context.Context) (common.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(common.Address)
	return caller, ok
}

// NewCallerToken issues a token accepted by [WithCaller].
func NewCallerToken(secret []byte, caller common.Address, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   caller.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "can't sign token")
	}
	return token, nil
}

func ParseCallerToken(secret []byte, raw string) (common.Address, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return common.Address{}, errors.Wrap(err, "can't parse token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return common.Address{}, errors.Wrap(err, "can't get subject")
	}
	caller, err := common.NewAddressFromHex(subject)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "invalid subject")
	}
	return caller, nil
}
