// Package access manages operator accounts and the bearer tokens that
// identify a Session.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/recebimento/internal/config"
	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
)

const issuer = "recebimento"

// Claims is the JWT payload.
type Claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserInput creates or updates an account. An empty Password keeps the
// stored hash of an existing user.
type UserInput struct {
	ID          string
	DisplayName string
	Role        models.Role
	Password    string
}

// Service authenticates operators and manages users.
type Service struct {
	store  *sqlstore.Store
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new access service instance.
func NewService(store *sqlstore.Store, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		logger: logger,
		now:    time.Now,
	}
}

// Login checks the password and returns a signed token with its session.
func (s *Service) Login(ctx context.Context, id, password string) (string, models.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		return "", models.Session{}, fmt.Errorf("%w: user and password are required", models.ErrValidation)
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login rejected", zap.String("user", id), zap.String("reason", "unknown user"))
			return "", models.Session{}, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
		}
		return "", models.Session{}, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("user", id), zap.String("reason", "bad password"))
		return "", models.Session{}, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}

	sess := sessionOf(user)
	token, err := s.IssueToken(sess)
	if err != nil {
		return "", models.Session{}, err
	}

	s.logger.Info("login succeeded", zap.String("user", id), zap.String("role", string(user.Role)))
	return token, sess, nil
}

// IssueToken signs an HS256 token for sess.
func (s *Service) IssueToken(sess models.Session) (string, error) {
	now := s.now()
	claims := Claims{
		Name: sess.DisplayName,
		Role: sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate validates a bearer token and reloads the account so role
// changes and deletions apply immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, fmt.Errorf("%w: missing token", models.ErrUnauthorized)
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Session{}, fmt.Errorf("%w: account %s no longer exists", models.ErrUnauthorized, claims.Subject)
		}
		return models.Session{}, fmt.Errorf("authenticate: %w", err)
	}
	return sessionOf(user), nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context, sess models.Session) ([]models.User, error) {
	if err := models.RequireRole(sess, models.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SaveUser creates or updates an account.
func (s *Service) SaveUser(ctx context.Context, sess models.Session, in UserInput) (models.User, error) {
	if err := models.RequireRole(sess, models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	user, err := s.save(ctx, in)
	if err != nil {
		return models.User{}, err
	}
	s.logger.Info("user saved", zap.String("user", user.ID), zap.String("role", string(user.Role)), zap.String("by", sess.UserID))
	return user, nil
}

func (s *Service) save(ctx context.Context, in UserInput) (models.User, error) {
	user := models.User{
		ID:          strings.TrimSpace(in.ID),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        in.Role,
	}
	if user.ID == "" {
		return models.User{}, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	role, err := models.ParseRole(string(in.Role))
	if err != nil {
		return models.User{}, err
	}
	user.Role = role
	if user.DisplayName == "" {
		user.DisplayName = user.ID
	}

	switch existing, err := s.store.GetUser(ctx, user.ID); {
	case err == nil:
		user.PasswordHash = existing.PasswordHash
	case errors.Is(err, models.ErrNotFound):
		if in.Password == "" {
			return models.User{}, fmt.Errorf("%w: password is required for a new user", models.ErrValidation)
		}
	default:
		return models.User{}, fmt.Errorf("save user: %w", err)
	}

	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, sess models.Session, id string) error {
	if err := models.RequireRole(sess, models.RoleAdmin); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == sess.UserID {
		return fmt.Errorf("%w: cannot delete the account in use", models.ErrValidation)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.String("user", id), zap.String("by", sess.UserID))
	return nil
}

// EnsureSeedAdmin creates the bootstrap admin when the user table is empty.
func (s *Service) EnsureSeedAdmin(ctx context.Context, id, password string) error {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		s.logger.Warn("no users exist and SEED_ADMIN_PASSWORD is empty, nobody can log in")
		return nil
	}

	if _, err := s.save(ctx, UserInput{ID: id, DisplayName: "Gestor", Role: models.RoleAdmin, Password: password}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.logger.Info("seed admin created", zap.String("user", id))
	return nil
}

func sessionOf(u models.User) models.Session {
	return models.Session{UserID: u.ID, DisplayName: u.DisplayName, Role: u.Role}
}
