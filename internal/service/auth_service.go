package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"agora/internal/config"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "agora-api"
	tokenAudience = "agora-client"
	revokedPrefix = "revoked:jti:"
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// AuthService issues and verifies credentials and resolves them into actors.
type AuthService struct {
	store *repository.Store
	redis *redis.Client
	cfg   *config.Config
	now   func() time.Time
}

func NewAuthService(store *repository.Store, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{store: store, redis: rdb, cfg: cfg, now: time.Now}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*TokenPair, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewMissingFieldsError()
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username: strings.TrimSpace(in.Username),
		Email:    in.Email,
		Password: string(hashed),
		Role:     models.RoleStudent,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, models.NewMissingFieldsError()
	}
	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}
	return s.issue(ctx, user)
}

// Refresh rotates the stored refresh token. A token that is not the user's
// current one is rejected, so a replayed token stops working after one use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken, s.cfg.JWTRefreshSecret)
	if err != nil {
		return nil, models.NewUnauthenticatedError("Invalid or expired refresh token")
	}
	userID, err := subject(claims)
	if err != nil {
		return nil, models.NewUnauthenticatedError("Invalid or expired refresh token")
	}
	user, err := s.store.Users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewUnauthenticatedError("Invalid or expired refresh token")
	}
	if err != nil {
		return nil, err
	}

	access, accessExp, err := s.signAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, jti, refreshExp, err := s.signRefresh(user)
	if err != nil {
		return nil, err
	}
	oldJTI, _ := claims["jti"].(string)
	rotated, err := s.store.RefreshTokens.Rotate(ctx, user.ID, oldJTI, jti, refreshExp)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, models.NewUnauthenticatedError("Invalid or expired refresh token")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(accessExp.Sub(s.now()).Seconds()), User: user}, nil
}

// Logout revokes the access token until it would have expired anyway and
// drops the user's refresh token.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.parse(accessToken, s.cfg.JWTSecret)
	if err != nil {
		return models.NewUnauthenticatedError("Invalid or expired token")
	}
	userID, err := subject(claims)
	if err != nil {
		return models.NewUnauthenticatedError("Invalid or expired token")
	}
	if jti, _ := claims["jti"].(string); jti != "" && s.redis != nil {
		ttl := time.Minute
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			ttl = time.Until(exp.Time)
		}
		if ttl > 0 {
			if err := s.redis.Set(ctx, revokedPrefix+jti, "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to revoke access token", slog.String("error", err.Error()))
			}
		}
	}
	return s.store.RefreshTokens.DeleteByUser(ctx, userID)
}

// ResolveActor verifies an access token and loads the caller. Role and
// membership come from the user row, not the claims, so changes apply
// immediately. The revocation list fails open when redis is unavailable.
func (s *AuthService) ResolveActor(ctx context.Context, token string) (models.Actor, error) {
	claims, err := s.parse(token, s.cfg.JWTSecret)
	if err != nil {
		return models.Actor{}, models.NewUnauthenticatedError("Invalid or expired token")
	}
	userID, err := subject(claims)
	if err != nil {
		return models.Actor{}, models.NewUnauthenticatedError("Invalid or expired token")
	}
	if jti, _ := claims["jti"].(string); jti != "" && s.redis != nil {
		n, err := s.redis.Exists(ctx, revokedPrefix+jti).Result()
		switch {
		case err != nil:
			middleware.Logger.WarnContext(ctx, "revocation check unavailable", slog.String("error", err.Error()))
		case n > 0:
			return models.Actor{}, models.NewUnauthenticatedError("Token has been revoked")
		}
	}

	user, err := s.store.Users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.Actor{}, models.NewUnauthenticatedError("Invalid or expired token")
	}
	if err != nil {
		return models.Actor{}, err
	}
	return user.Actor(), nil
}

func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.Users.GetByID(ctx, actor.ID)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, accessExp, err := s.signAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, jti, refreshExp, err := s.signRefresh(user)
	if err != nil {
		return nil, err
	}
	if err := s.store.RefreshTokens.Replace(ctx, user.ID, jti, refreshExp); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(accessExp.Sub(s.now()).Seconds()), User: user}, nil
}

func (s *AuthService) signAccess(user *models.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.AccessTokenTTL())
	claims := jwt.MapClaims{
		"sub":            strconv.FormatUint(uint64(user.ID), 10),
		"role":           string(user.Role),
		"private_member": user.PrivateMember,
		"iss":            tokenIssuer,
		"aud":            tokenAudience,
		"exp":            exp.Unix(),
		"iat":            now.Unix(),
		"nbf":            now.Unix(),
		"jti":            uuid.NewString(),
	}
	signed, err := sign(claims, s.cfg.JWTSecret)
	return signed, exp, err
}

func (s *AuthService) signRefresh(user *models.User) (string, string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.RefreshTokenTTL())
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"jti": jti,
	}
	signed, err := sign(claims, s.cfg.JWTRefreshSecret)
	return signed, jti, exp, err
}

func sign(claims jwt.MapClaims, secret string) (string, error) {
	if secret == "" {
		return "", models.NewInternalError(fmt.Errorf("JWT secret not configured"))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

func (s *AuthService) parse(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func subject(claims jwt.MapClaims) (uint, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid subject")
	}
	return uint(id), nil
}
