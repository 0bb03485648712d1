package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Claims is the identity assertion carried by both token variants.
type Claims struct {
	UserID string
	Role   Role
}

// TokenPair is the short-lived access token plus the long-lived refresh
// token, issued together and signed with the same symmetric secret.
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ExpiresIn int    `json:"expires_in"` // seconds until access expiry
}

type jwtClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies identity tokens. It has no side effects and no
// storage; a token is valid purely by signature and expiry.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssuePair issues an access and refresh token for the user.
func (c *Codec) IssuePair(userID string, role Role) (*TokenPair, error) {
	access, err := c.sign(userID, role, c.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := c.sign(userID, role, c.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:    access,
		Refresh:   refresh,
		ExpiresIn: int(c.accessTTL.Seconds()),
	}, nil
}

func (c *Codec) sign(userID string, role Role, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwtClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Decode verifies the token and returns its claims. Expired tokens return
// ErrTokenExpired; anything else that fails to verify returns
// ErrTokenMalformed.
func (c *Codec) Decode(token string) (Claims, error) {
	tok, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenMalformed
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenMalformed
	}
	claims, ok := tok.Claims.(*jwtClaims)
	if !ok || claims.UserID == "" {
		return Claims{}, ErrTokenMalformed
	}
	return Claims{UserID: claims.UserID, Role: Role(claims.Role)}, nil
}
