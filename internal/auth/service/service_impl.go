package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	authdomain "nhatro/internal/auth/domain"
	"nhatro/internal/auth/password"
	"nhatro/internal/clock"
	"nhatro/internal/config"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32

	minPasswordLength = 8
	minUsernameLength = 3
)

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	sessionTTL time.Duration
}

func New(p Params) authdomain.Service {
	ttl := time.Duration(p.Config.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("auth.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		sessionTTL: ttl,
	}
}

func (s *Service) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.UserView, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < minUsernameLength {
		return nil, authdomain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, authdomain.ErrInvalidCredentials
	}
	role := req.Role
	if role == "" {
		role = authdomain.RoleUser
	}
	if !role.Valid() {
		return nil, authdomain.ErrInvalidRole
	}

	existing, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, authdomain.ErrUserExists
	}

	hashed, err := password.Hash(strings.TrimSpace(req.Password))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}
	user := &authdomain.User{
		ID:                  s.genID.Generate(),
		Username:            username,
		DisplayName:         displayName,
		PasswordHash:        &hashed,
		Role:                role,
		LastPasswordChanged: &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("username", username), zap.String("role", string(role)))
	return toUserView(user), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]authdomain.UserView, error) {
	var users []authdomain.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	views := make([]authdomain.UserView, 0, len(users))
	for i := range users {
		views = append(views, *toUserView(&users[i]))
	}
	return views, nil
}

func (s *Service) UpdateRole(ctx context.Context, userID string, role authdomain.Role) (*authdomain.UserView, error) {
	if !role.Valid() {
		return nil, authdomain.ErrInvalidRole
	}

	user, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == authdomain.RoleAdmin && role != authdomain.RoleAdmin {
		lastAdmin, err := s.isLastAdmin(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if lastAdmin {
			return nil, authdomain.ErrLastAdmin
		}
	}

	user.Role = role
	user.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return toUserView(user), nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.Role == authdomain.RoleAdmin {
		lastAdmin, err := s.isLastAdmin(ctx, user.ID)
		if err != nil {
			return err
		}
		if lastAdmin {
			return authdomain.ErrLastAdmin
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&authdomain.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || strings.TrimSpace(req.Password) == "" {
		return nil, authdomain.ErrInvalidCredentials
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &authdomain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(s.sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}

	return &authdomain.LoginResult{
		User:      toUserView(user),
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return authdomain.ErrInvalidSession
	}

	session, err := s.findSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return err
	}
	if session == nil {
		return authdomain.ErrInvalidSession
	}

	now := s.clock.Now()
	return s.db.WithContext(ctx).
		Model(&authdomain.Session{}).
		Where("id = ?", session.ID).
		Update("revoked_at", &now).Error
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*authdomain.AuthenticatedUser, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, authdomain.ErrInvalidSession
	}

	session, err := s.findSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, authdomain.ErrInvalidSession
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, authdomain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, authdomain.ErrSessionExpired
	}

	var user authdomain.User
	if err := s.db.WithContext(ctx).Where("id = ?", session.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authdomain.ErrInvalidSession
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&authdomain.Session{}).
		Where("id = ?", session.ID).
		Update("last_seen_at", now).Error; err != nil {
		return nil, err
	}
	session.LastSeenAt = now

	return &authdomain.AuthenticatedUser{User: &user, Session: session}, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return authdomain.ErrInvalidCredentials
	}

	user, err := s.findByID(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := password.Hash(strings.TrimSpace(newPassword))
	if err != nil {
		return err
	}

	now := s.clock.Now()
	return s.db.WithContext(ctx).
		Model(&authdomain.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"password_hash":         hashed,
			"last_password_changed": &now,
			"is_default":            false,
			"updated_at":            now,
		}).Error
}

func (s *Service) findByID(ctx context.Context, userID string) (*authdomain.User, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, authdomain.ErrUserNotFound
	}

	var user authdomain.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) findByUsername(ctx context.Context, username string) (*authdomain.User, error) {
	var user authdomain.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) findSessionByTokenHash(ctx context.Context, tokenHash string) (*authdomain.Session, error) {
	var session authdomain.Session
	err := s.db.WithContext(ctx).Where("session_token_hash = ?", tokenHash).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *Service) isLastAdmin(ctx context.Context, userID snowflake.ID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&authdomain.User{}).
		Where("role = ? AND id <> ?", authdomain.RoleAdmin, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func toUserView(u *authdomain.User) *authdomain.UserView {
	return &authdomain.UserView{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsDefault:   u.IsDefault,
		CreatedAt:   u.CreatedAt,
	}
}
