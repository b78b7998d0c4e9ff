package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/repo"
	"github.com/utidosgames/storefront/pkg/events"
	pkghash "github.com/utidosgames/storefront/pkg/hash"
	jwthelp "github.com/utidosgames/storefront/pkg/jwt"
	"github.com/utidosgames/storefront/pkg/logging"
	authmw "github.com/utidosgames/storefront/pkg/middleware/auth"
	"github.com/utidosgames/storefront/pkg/tokens"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultLinkTTL    = 15 * time.Minute

	minPasswordLen = 6
)

type AuthConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	LinkTTL       time.Duration
	// LinkBaseURL is the page that redeems one-time admin links.
	LinkBaseURL string
}

type AuthService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	cfg    AuthConfig
	now    func() time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

type AdminLink struct {
	URL       string
	ExpiresAt time.Time
}

func NewAuthService(r *repo.GormRepo, pub events.Publisher, cfg AuthConfig) *AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	return &AuthService{Repo: r, Events: pub, cfg: cfg, now: time.Now}
}

func (s *AuthService) CreateAccessToken(role, id string, accessExp time.Time) (string, error) {
	return tokens.SignAccess(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}, s.cfg.AccessSecret)
}

func (s *AuthService) CreateRefreshToken(id, jti string, refreshExp time.Time) (string, error) {
	return tokens.SignRefresh(tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        jti,
		},
	}, s.cfg.RefreshSecret)
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must have at least %d characters: %w", minPasswordLen, ErrValidation)
	}

	pwHash, err := pkghash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         tokens.RoleUser,
	}

	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("user already exist: %w", ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUser, user.ID.String(), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, nil
}

// EnsureAdmin creates or promotes the bootstrap admin account.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	user, err := s.Register(ctx, username, password)
	if errors.Is(err, ErrConflict) {
		user, err = s.Repo.UserExist(ctx, username, password)
		if err != nil {
			return fmt.Errorf("bootstrap admin %q: %w", username, err)
		}
	} else if err != nil {
		return err
	}
	if user.Role == tokens.RoleAdmin {
		return nil
	}
	return s.Repo.SetUserRole(ctx, user.ID, tokens.RoleAdmin)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.UserExist(ctx, username, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	res, rt, err := s.signPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return res, nil
}

func (s *AuthService) signPair(user *models.User) (*LoginResult, *models.RefreshToken, error) {
	now := s.now()
	accessExp := now.Add(s.cfg.AccessTTL)
	accessToken, err := s.CreateAccessToken(user.Role, user.ID.String(), accessExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}

	jti := jwthelp.NewJTI()
	refreshExp := now.Add(s.cfg.RefreshTTL)
	refreshToken, err := s.CreateRefreshToken(user.ID.String(), jti, refreshExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &LoginResult{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			AccessExp:    accessExp,
			RefreshExp:   refreshExp,
			IsAdmin:      user.Role == tokens.RoleAdmin,
		}, &models.RefreshToken{
			UserID:    user.ID,
			JTI:       jti,
			TokenHash: jwthelp.Sha256Hex(refreshToken),
			ExpiresAt: refreshExp.Unix(),
		}, nil
}

// Refresh rotates refreshToken. Unknown, revoked, expired and tampered
// tokens all yield ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad token", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.Repo.FindRefreshByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown token")
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if stored.TokenHash != jwthelp.Sha256Hex(refreshToken) || stored.Revoked {
		l.Warn("refresh_failed", "status", 401, "reason", "revoked token", "user_id", stored.UserID)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	res, next, err := s.signPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, next); err != nil {
		if errors.Is(err, repo.ErrTokenExpiredRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "token expired or revoked", "user_id", user.ID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return res, nil
}

// RefreshSession lets the auto refresh middleware rotate sessions.
func (s *AuthService) RefreshSession(ctx context.Context, refreshToken string) (*authmw.Session, error) {
	res, err := s.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &authmw.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp,
		RefreshExp:   res.RefreshExp,
	}, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.LogOut(ctx, jwthelp.Sha256Hex(refreshToken))
}

// ForceLogout ends every session of userID. Access tokens already issued
// stay valid until they expire, refreshes fail immediately.
func (s *AuthService) ForceLogout(ctx context.Context, adminID, userID uuid.UUID) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "auth.force_logout", "user_id", userID, "admin_id", adminID)

	revoked, err := s.Repo.ForceLogout(ctx, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		l.Error("force_logout_error", "status", 500, "error", err)
		return 0, err
	}
	l.Info("force_logout", "revoked_tokens", revoked)

	publish(ctx, s.Events, events.TopicUser, userID.String(), map[string]any{
		"type":     "user_force_logout",
		"user_id":  userID,
		"admin_id": adminID,
		"revoked":  revoked,
	})
	return revoked, nil
}

// IssueAdminLink creates a one-time login link for userID.
func (s *AuthService) IssueAdminLink(ctx context.Context, adminID, userID uuid.UUID) (*AdminLink, error) {
	l := logging.FromContext(ctx).With("svc", "auth.admin_link", "user_id", userID, "admin_id", adminID)

	if _, err := s.Repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().UTC().Add(s.cfg.LinkTTL)
	link := &models.AdminLink{
		UserID:    userID,
		IssuedBy:  adminID,
		TokenHash: jwthelp.Sha256Hex(token),
		ExpiresAt: expiresAt,
	}
	if err := s.Repo.CreateAdminLink(ctx, link); err != nil {
		l.Error("admin_link_error", "status", 500, "error", err)
		return nil, err
	}
	l.Info("admin_link_issued", "expires_at", expiresAt)

	return &AdminLink{URL: s.linkURL(token), ExpiresAt: expiresAt}, nil
}

func (s *AuthService) linkURL(token string) string {
	sep := "?"
	if strings.Contains(s.cfg.LinkBaseURL, "?") {
		sep = "&"
	}
	return s.cfg.LinkBaseURL + sep + "token=" + token
}

// RedeemAdminLink logs the link's user in. Each link works once.
func (s *AuthService) RedeemAdminLink(ctx context.Context, token string) (*LoginResult, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required: %w", ErrValidation)
	}
	link, err := s.Repo.ConsumeAdminLink(ctx, jwthelp.Sha256Hex(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.FromContext(ctx).Warn("admin_link_rejected", "status", 401)
			return nil, ErrInvalidLink
		}
		return nil, err
	}

	user, err := s.Repo.GetUserByID(ctx, link.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// PurgeExpired drops dead refresh tokens and admin links.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	n, err := s.Repo.PurgeExpiredTokens(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("purge tokens: %w", err)
	}
	if n > 0 {
		logging.FromContext(ctx).Info("tokens_purged", "count", n)
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
