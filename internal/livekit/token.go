// Package livekit issues access tokens for joining LiveKit rooms.
package livekit

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long a token is valid when no TTL is configured.
const DefaultTTL = 6 * time.Hour

// VideoGrant is the room permission set LiveKit reads from the "video" claim.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

// Claims are the claims of a LiveKit access token.
type Claims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
}

// Issuer signs join tokens with an API key pair.
type Issuer struct {
	apiKey    string
	apiSecret string
	room      string
	ttl       time.Duration
	now       func() time.Time
}

// NewIssuer creates an issuer. room is used when a request names none.
func NewIssuer(apiKey, apiSecret, room string, ttl time.Duration) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("livekit: api key and secret are required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{apiKey: apiKey, apiSecret: apiSecret, room: room, ttl: ttl, now: time.Now}, nil
}

// Token returns a signed token letting identity join room.
func (i *Issuer) Token(identity, room string) (string, error) {
	if identity == "" {
		return "", errors.New("livekit: identity is required")
	}
	if room == "" {
		room = i.room
	}
	if room == "" {
		return "", errors.New("livekit: room is required")
	}

	now := i.now()
	yes := true
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			ID:        identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name: identity,
		Video: &VideoGrant{
			RoomJoin:     true,
			Room:         room,
			CanPublish:   &yes,
			CanSubscribe: &yes,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.apiSecret))
	if err != nil {
		return "", fmt.Errorf("livekit: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token signed by this issuer and returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(i.apiSecret), nil
	}, jwt.WithIssuer(i.apiKey), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
