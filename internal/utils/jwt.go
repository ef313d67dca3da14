package utils // package utils issues tokens and hashes secrets for the auth flow

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is the raw long-lived token handed to the client.  Only its
// SHA-256 hash is stored.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// Subject is the identity carried inside an access token.  The storefront
// reads userName, email and phone from the token when it snapshots a
// shopper's contact details, so they travel with the id and role.
type Subject struct {
    UserID   uint64
    Role     string
    UserName string
    Email    string
    Phone    string
}

var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken signs a token for s that expires ttlMin minutes from now.
// sub is encoded as a decimal string as RFC 7519 expects.
func NewAccessToken(secret string, s Subject, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":      strconv.FormatUint(s.UserID, 10),
        "role":     s.Role,
        "userName": s.UserName,
        "email":    s.Email,
        "exp":      exp.Unix(),
        "iat":      now.Unix(),
    }
    if s.Phone != "" {
        claims["phone"] = s.Phone
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and returns its subject.  Tokens
// signed with anything but HMAC are rejected.
func ParseAccessToken(secret, raw string) (Subject, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return Subject{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Subject{}, ErrInvalidToken
    }
    sub, _ := claims["sub"].(string)
    id, err := strconv.ParseUint(sub, 10, 64)
    if err != nil || id == 0 {
        return Subject{}, ErrInvalidToken
    }
    s := Subject{UserID: id}
    s.Role, _ = claims["role"].(string)
    s.UserName, _ = claims["userName"].(string)
    s.Email, _ = claims["email"].(string)
    s.Phone, _ = claims["phone"].(string)
    if s.Role == "" {
        return Subject{}, ErrInvalidToken
    }
    return s, nil
}

// NewRefreshToken returns 48 random bytes, hex encoded, valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw is the stored form of a refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
