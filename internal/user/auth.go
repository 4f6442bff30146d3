package user

import (
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	localsKey   = "user"
	claimUserID = "user_id"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) Issue(user User) (string, error) {
	claims := jwt.MapClaims{
		claimUserID: user.ID.String(),
		"email":     user.Email,
		"exp":       i.now().Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Protected verifies the bearer token and stores it under c.Locals("user").
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ContextKey: localsKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	})
}

func GetUserIDFromCtx(c *fiber.Ctx) (uuid.UUID, error) {
	tok, ok := c.Locals(localsKey).(*jwt.Token)
	if !ok || tok == nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	raw, ok := claims[claimUserID].(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return id, nil
}

// UserIDString is used by the request logger.
func UserIDString(c *fiber.Ctx) string {
	id, err := GetUserIDFromCtx(c)
	if err != nil {
		return ""
	}
	return id.String()
}
