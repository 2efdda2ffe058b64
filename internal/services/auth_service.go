package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auctionhub/internal/apperrors"
	"auctionhub/internal/models"
	"auctionhub/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and token issuing/verification.
type AuthService struct {
	users    store.UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users store.UserStore, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// VerifyPassword compares a plain password with a hashed password
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken signs a JWT carrying the user ID.
func (s *AuthService) GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken parses a signed token and returns the user ID it carries.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", apperrors.ErrInvalidToken
	}
	return userID, nil
}

// Register creates a new user and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (models.User, string, error) {
	// Check if user already exists
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, "", apperrors.ErrDuplicateEmail
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return models.User{}, "", fmt.Errorf("register: %w", err)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("register: hash password: %w", err)
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: time.Now(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return models.User{}, "", fmt.Errorf("register: %w", err)
	}

	token, err := s.GenerateToken(user.ID.Hex())
	if err != nil {
		return models.User{}, "", fmt.Errorf("register: sign token: %w", err)
	}

	user.Password = ""
	return user, token, nil
}

// Login authenticates a user and returns it with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, "", apperrors.ErrInvalidCredentials
	}

	if !VerifyPassword(password, user.Password) {
		return models.User{}, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID.Hex())
	if err != nil {
		return models.User{}, "", fmt.Errorf("login: sign token: %w", err)
	}

	user.Password = ""
	return user, token, nil
}

// GetUser loads the user behind a resolved caller identity.
func (s *AuthService) GetUser(ctx context.Context, userID string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return models.User{}, err
	}

	user.Password = ""
	return user, nil
}
