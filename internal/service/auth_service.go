package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"scaledrill/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles host and drill-session authentication
type AuthService struct {
	hostUsername string
	hostPassword string
	jwtSecret    []byte
	drillTTL     time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(username, password, secret string, drillTTL time.Duration) *AuthService {
	if drillTTL <= 0 {
		drillTTL = 24 * time.Hour
	}
	return &AuthService{
		hostUsername: username,
		hostPassword: password,
		jwtSecret:    []byte(secret),
		drillTTL:     drillTTL,
	}
}

// Login validates credentials and returns a permanent host token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.hostUsername || password != s.hostPassword {
		return nil, ErrInvalidCredentials
	}

	hostID := HostIDFor(username)

	claims := &model.HostClaims{
		HostID: hostID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:  tokenString,
		HostID: hostID,
	}, nil
}

// ValidateHostToken validates a host JWT and returns claims
func (s *AuthService) ValidateHostToken(tokenString string) (*model.HostClaims, error) {
	claims := &model.HostClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.HostID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateDrillToken creates a token scoped to one drill session
func (s *AuthService) GenerateDrillToken(sessionID, presetCode string) (string, error) {
	now := time.Now()
	claims := &model.DrillClaims{
		SessionID:  sessionID,
		PresetCode: presetCode,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.drillTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateDrillToken validates a drill JWT and returns claims
func (s *AuthService) ValidateDrillToken(tokenString string) (*model.DrillClaims, error) {
	claims := &model.DrillClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// hostNamespace scopes the name-based host ids
var hostNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("scaledrill/host"))

// HostIDFor returns the stable host id for a username, so every login of the
// same host owns the same presets
func HostIDFor(username string) string {
	return "host_" + uuid.NewSHA1(hostNamespace, []byte(username)).String()[:8]
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
