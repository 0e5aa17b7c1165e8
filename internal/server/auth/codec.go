// Package auth issues and validates signed bearer tokens that carry an
// identity and its role set.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultIssuer is used when no issuer is configured.
const DefaultIssuer = "gophauth"

// Kind selects the validity window of an issued token.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	switch k {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// RoleClaim is one entry of the roles claim.
type RoleClaim struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Claims is the token payload. The subject is "<userId>,<email>".
type Claims struct {
	Roles []RoleClaim `json:"roles"`
	jwt.RegisteredClaims
}

// Identity is what a verified token proves about its bearer.
type Identity struct {
	UserID int64
	Email  string
	Roles  []models.Role
}

// HasRole reports whether the identity carries a role with the given name.
func (i *Identity) HasRole(name string) bool {
	for _, r := range i.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

type Options struct {
	Secret          []byte
	Issuer          string
	AccessValidity  time.Duration
	RefreshValidity time.Duration
}

// Codec signs tokens with HS256 under a shared secret.
type Codec struct {
	secret   []byte
	issuer   string
	validity map[Kind]time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewCodec(opts Options, logger logging.Logger, m *metrics.Metrics) *Codec {
	issuer := opts.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Codec{
		secret: opts.Secret,
		issuer: issuer,
		validity: map[Kind]time.Duration{
			Access:  opts.AccessValidity,
			Refresh: opts.RefreshValidity,
		},
		logger:  logger.With("module", "token-codec"),
		metrics: m,
		now:     time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue signs a token of the given kind for user.
func (c *Codec) Issue(user *models.User, kind Kind) (string, error) {
	if user == nil {
		return "", common.ErrNoIdentity
	}
	validity, ok := c.validity[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %d", kind)
	}

	now := c.now()
	roles := make([]RoleClaim, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, RoleClaim{ID: r.ID, Name: r.Name})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   formatSubject(user.ID, user.Email),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	})

	return token.SignedString(c.secret)
}

// Validate reports whether token carries a good signature, the expected
// issuer, a well-formed subject and an expiry in the future. The cause of a
// rejection is logged, never returned.
func (c *Codec) Validate(ctx context.Context, token string) bool {
	_, err := c.parse(token)
	result := classify(err)
	c.metrics.ObserveTokenValidation(result)
	if err != nil {
		c.logger.Warn(ctx, "token rejected", "reason", result, "error", err)
		return false
	}
	return true
}

// DecodeIdentity returns the identity of a valid token. It fails with
// common.ErrInvalidToken for anything Validate would reject.
func (c *Codec) DecodeIdentity(token string) (*Identity, error) {
	claims, err := c.parse(token)
	if err != nil {
		return nil, errors.Join(common.ErrInvalidToken, err)
	}

	userID, email, err := parseSubject(claims.Subject)
	if err != nil {
		return nil, errors.Join(common.ErrInvalidToken, err)
	}

	roles := make([]models.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, models.Role{ID: r.ID, Name: r.Name})
	}

	return &Identity{UserID: userID, Email: email, Roles: roles}, nil
}

// Expiry returns the expiration time of a valid token.
func (c *Codec) Expiry(token string) (time.Time, error) {
	claims, err := c.parse(token)
	if err != nil {
		return time.Time{}, errors.Join(common.ErrInvalidToken, err)
	}
	return claims.ExpiresAt.Time, nil
}

func (c *Codec) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, common.ErrInvalidToken
	}
	if _, _, err := parseSubject(claims.Subject); err != nil {
		return nil, err
	}
	return claims, nil
}

var errBadSubject = errors.New("malformed subject")

func formatSubject(userID int64, email string) string {
	return strconv.FormatInt(userID, 10) + "," + email
}

// parseSubject splits on the first comma, so emails may contain commas.
func parseSubject(sub string) (int64, string, error) {
	id, email, ok := strings.Cut(sub, ",")
	if !ok || email == "" {
		return 0, "", errBadSubject
	}
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", errBadSubject, err)
	}
	return userID, email, nil
}

func classify(err error) string {
	switch {
	case err == nil:
		return metrics.TokenValid
	case errors.Is(err, errBadSubject):
		return metrics.TokenBadSubject
	case errors.Is(err, jwt.ErrTokenMalformed):
		return metrics.TokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return metrics.TokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return metrics.TokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return metrics.TokenBadIssuer
	default:
		return metrics.TokenInvalid
	}
}
