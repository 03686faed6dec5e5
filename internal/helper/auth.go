package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrMissingSecret is returned when tokens would be signed or checked with
// an empty key.
var ErrMissingSecret = errors.New("access secret is not configured")

type Auth struct {
	Secret string
	TTL    time.Duration
}

func SetupAuth(s string) Auth {
	return Auth{
		Secret: s,
		TTL:    24 * time.Hour,
	}
}

func (a Auth) GenerateToken(userID uint, email string) (string, error) {
	if a.Secret == "" {
		return "", ErrMissingSecret
	}
	if userID == 0 || email == "" {
		return "", errors.New("required inputs are missing to generate token")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(a.TTL).Unix(),
	})

	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", errors.New("unable to sign the token")
	}
	return tokenStr, nil
}

// VerifyToken accepts both "Bearer <token>" and a bare token.
func (a Auth) VerifyToken(tokenString string) (dto.AuthResponse, error) {
	if a.Secret == "" {
		return dto.AuthResponse{}, apperr.Unauthenticated("token verification is not configured")
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return dto.AuthResponse{}, apperr.Unauthenticated("missing token")
	}

	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		parts := strings.SplitN(tokenString, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			return dto.AuthResponse{}, apperr.Unauthenticated("invalid token format")
		}
		tokenString = strings.TrimSpace(parts[1])
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.Secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dto.AuthResponse{}, apperr.Unauthenticated("token expired")
		}
		return dto.AuthResponse{}, apperr.Unauthenticated("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return dto.AuthResponse{}, apperr.Unauthenticated("invalid token claims")
	}

	uid, _ := claims["user_id"].(float64)
	email, _ := claims["email"].(string)
	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)
	if uid <= 0 || email == "" {
		return dto.AuthResponse{}, apperr.Unauthenticated("invalid token claims")
	}

	return dto.AuthResponse{
		UserID: uint(uid),
		Email:  email,
		Expiry: exp,
		Iat:    iat,
	}, nil
}

func (a Auth) GetCurrentUser(ctx *fiber.Ctx) (dto.AuthResponse, error) {
	claims, ok := ctx.Locals("user").(dto.AuthResponse)
	if !ok {
		return dto.AuthResponse{}, apperr.Unauthenticated("missing auth user in context")
	}
	return claims, nil
}

func (a Auth) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a Auth) VerifyPassword(plain, hashed string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return apperr.Unauthenticated("invalid email or password")
	}
	return nil
}
