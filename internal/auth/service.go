package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Swappable for tests.
var (
	hashPasswordFn    = bcrypt.GenerateFromPassword
	signTokenFn       = (*Service).signToken
	parseWithClaimsFn = jwt.ParseWithClaims
)

type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, q db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     q,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (Angler, TokenResponse, error) {
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return Angler{}, TokenResponse{}, errors.New("email, username, password required")
	}
	if !strings.Contains(req.Email, "@") {
		return Angler{}, TokenResponse{}, errors.New("email malformed")
	}
	if len(req.Password) < 8 {
		return Angler{}, TokenResponse{}, errors.New("password must be at least 8 characters")
	}
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Angler{}, TokenResponse{}, err
	}

	angler := Angler{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		HomePort:     req.HomePort,
		AvatarURL:    req.AvatarURL,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO anglers (id, email, username, password_hash, display_name, home_port, avatar_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, angler.ID, angler.Email, angler.Username, angler.PasswordHash, angler.DisplayName, angler.HomePort, angler.AvatarURL)
	if err := row.Scan(&angler.CreatedAt, &angler.UpdatedAt); err != nil {
		return Angler{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, angler.ID)
	if err != nil {
		return Angler{}, TokenResponse{}, err
	}
	return angler, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (Angler, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, username, password_hash, display_name, home_port, avatar_url, created_at, updated_at
		FROM anglers WHERE email = $1
	`, req.Email)

	var angler Angler
	if err := row.Scan(&angler.ID, &angler.Email, &angler.Username, &angler.PasswordHash, &angler.DisplayName, &angler.HomePort, &angler.AvatarURL, &angler.CreatedAt, &angler.UpdatedAt); err != nil {
		return Angler{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(angler.PasswordHash), []byte(req.Password)); err != nil {
		return Angler{}, TokenResponse{}, errors.New("invalid credentials")
	}

	tokens, err := s.GenerateTokens(ctx, angler.ID)
	if err != nil {
		return Angler{}, TokenResponse{}, err
	}
	return angler, tokens, nil
}

func (s *Service) GenerateTokens(ctx context.Context, anglerID string) (TokenResponse, error) {
	access, err := signTokenFn(s, anglerID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := signTokenFn(s, anglerID, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, anglerID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}

	anglerID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || anglerID != claims.UserID || time.Now().After(expiresAt) {
		return "", errors.New("refresh token invalid")
	}
	return claims.UserID, nil
}

// RevokeRefreshToken retires a refresh token so it can no longer mint access
// tokens. Revoking an unknown or already revoked token is an error.
func (s *Service) RevokeRefreshToken(ctx context.Context, token string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now()
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("refresh token invalid")
	}
	return nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) signToken(anglerID string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: anglerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, anglerID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, angler_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), anglerID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT angler_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var anglerID string
	var expiresAt time.Time
	if err := row.Scan(&anglerID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return anglerID, expiresAt, nil
}
