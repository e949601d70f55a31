package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
)

// Claims represents the JWT claims for our access tokens.
// TenantID is empty for platform-level roles.
type Claims struct {
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken mints an HMAC-signed bearer credential for a principal.
// The subject claim carries the user ID; role and tenant travel as private
// claims but are re-resolved from the store on every request, so a stale
// token cannot widen privileges.
func (s *JWTService) GenerateAccessToken(
	userID domain.UserID,
	role domain.Role,
	tenantID *domain.TenantID,
	expiresIn time.Duration) (string, error) {
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	}
	if tenantID != nil {
		claims.TenantID = tenantID.String()
	}

	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken verifies signature, expiry, issuer and audience, and returns
// the parsed claims. Any cryptographic or temporal failure maps to a single
// unauthorized error so callers cannot leak which check failed.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ExtractUserIDFromToken validates the token and parses its subject claim.
func (s *JWTService) ExtractUserIDFromToken(tokenString string) (domain.UserID, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return domain.UserID{}, err
	}
	return domain.ParseUserID(claims.Subject)
}
