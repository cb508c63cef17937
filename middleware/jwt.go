package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"lms/config"
	"lms/engine"
	"lms/models"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(user models.User) (string, error) {
	ttl := time.Duration(config.AppConfig.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": user.ID,
		"name":   user.Name,
		"role":   user.Role,
		"email":  user.Email,
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTKey))
}

// parseBearer validates the Authorization header and returns its claims.
func parseBearer(authHeader string) (jwt.MapClaims, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errors.New("Invalid Authorization header format")
	}
	tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["userId"] == nil {
		return nil, errors.New("Invalid token payload")
	}
	if _, ok := claims["userId"].(float64); !ok {
		return nil, errors.New("Invalid token payload")
	}
	return claims, nil
}

func setClaims(c *fiber.Ctx, claims jwt.MapClaims) {
	// JWT numbers decode as float64
	c.Locals("userId", uint(claims["userId"].(float64)))
	role, _ := claims["role"].(string)
	c.Locals("role", role)
	email, _ := claims["email"].(string)
	c.Locals("email", email)
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
	}
	claims, err := parseBearer(authHeader)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, err.Error(), nil)
	}
	setClaims(c, claims)
	return c.Next()
}

// OptionalJWT lets anonymous requests through but still rejects a bad token.
func OptionalJWT(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}
	claims, err := parseBearer(authHeader)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, err.Error(), nil)
	}
	setClaims(c, claims)
	return c.Next()
}

// CurrentViewer builds the engine viewer from the locals set above. Requests
// without a token yield the anonymous viewer.
func CurrentViewer(c *fiber.Ctx) engine.Viewer {
	userID, _ := c.Locals("userId").(uint)
	role, _ := c.Locals("role").(string)
	return engine.Viewer{UserID: userID, Role: role}
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}
