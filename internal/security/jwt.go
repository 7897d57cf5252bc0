package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/linemk/agriconnect/internal/domain/models"
)

// TokenType различает access, refresh и токены сброса пароля,
// чтобы один вид токена нельзя было предъявить вместо другого.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
	TokenReset   TokenType = "reset"
)

var (
	ErrTokenExpired = fmt.Errorf("%w: token expired", models.ErrUnauthenticated)
	ErrTokenInvalid = fmt.Errorf("%w: token invalid", models.ErrUnauthenticated)
)

// Claims полезная нагрузка токенов; sub: id пользователя
type Claims struct {
	Role        models.Role `json:"role,omitempty"`
	Type        TokenType   `json:"typ"`
	Fingerprint string      `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// UserID извлекает идентификатор пользователя из поля sub
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// TokenPair пара токенов, выдаваемая при входе и обновлении
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// NewTokenPair генерирует access и refresh токены для пользователя
func (m *TokenManager) NewTokenPair(user *models.User) (TokenPair, error) {
	access, err := m.sign(user, TokenAccess, m.accessTTL, "")
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(user, TokenRefresh, m.refreshTTL, "")
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// NewResetToken выдает токен сброса пароля, привязанный к текущему хэшу пароля:
// после смены пароля токен перестает проходить проверку.
func (m *TokenManager) NewResetToken(user *models.User) (string, error) {
	return m.sign(user, TokenReset, m.resetTTL, PasswordFingerprint(user.PassHash))
}

func (m *TokenManager) sign(user *models.User, typ TokenType, ttl time.Duration, fp string) (string, error) {
	now := m.now()
	claims := Claims{
		Role:        user.Role,
		Type:        typ,
		Fingerprint: fp,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse проверяет подпись, срок действия, издателя и тип токена
func (m *TokenManager) Parse(tokenStr string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Type != want {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// PasswordFingerprint короткий отпечаток хэша пароля для токенов сброса
func PasswordFingerprint(passHash []byte) string {
	sum := sha256.Sum256(passHash)
	return hex.EncodeToString(sum[:8])
}
