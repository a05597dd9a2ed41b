package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoomClaims is the payload of a room-scoped session token. A token
// authorizes websocket access to one room only.
type RoomClaims struct {
	RoomID string `json:"roomId"`
	jwt.RegisteredClaims
}

// GenerateRoomToken issues a signed token after a successful room join.
func GenerateRoomToken(roomID string, secret string, expirationMinutes int) (string, error) {
	claims := RoomClaims{
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateRoomToken parses and verifies a room session token.
func ValidateRoomToken(tokenString string, secret string) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*RoomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
