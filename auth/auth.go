package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type AuthModule struct {
	db        *pgxpool.Pool
	redis     *redis.Client
	JWTSecret string
}

func NewAuthModule(db *pgxpool.Pool, redis *redis.Client, JWTSecret string) *AuthModule {
	return &AuthModule{
		db:        db,
		redis:     redis,
		JWTSecret: JWTSecret,
	}
}

func generateSecureToken(length int) (string, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(randomBytes), nil
}

func (a *AuthModule) createUser(ctx context.Context, username, password, name string) (int64, error) {
	var exists bool
	err := a.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errors.New("username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var userID int64
	err = a.db.QueryRow(ctx,
		"INSERT INTO users (username, password, name, role) VALUES ($1, $2, $3, 0) RETURNING id",
		username, string(hashedPassword), name,
	).Scan(&userID)
	if err != nil {
		return 0, err
	}

	return userID, nil
}

func (a *AuthModule) generateJWT(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

func (a *AuthModule) authenticateUser(ctx context.Context, username string, password string) (int64, error) {
	var userID int64
	var passwordHash string
	err := a.db.QueryRow(ctx, "SELECT id, password FROM users WHERE username = $1", username).Scan(&userID, &passwordHash)
	if err != nil {
		return 0, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return 0, errors.New("invalid credentials")
	}

	return userID, nil
}

func (a *AuthModule) RegisterWithJWT(ctx context.Context, username, password, name string) (string, error) {
	userID, err := a.createUser(ctx, username, password, name)
	if err != nil {
		return "", err
	}

	return a.generateJWT(userID)
}

func (a *AuthModule) LoginWithJWT(ctx context.Context, username, password string) (string, error) {
	userID, err := a.authenticateUser(ctx, username, password)
	if err != nil {
		return "", err
	}

	return a.generateJWT(userID)
}

func (a *AuthModule) LoginWithSession(ctx context.Context, username, password string) (int64, string, error) {
	userID, err := a.authenticateUser(ctx, username, password)
	if err != nil {
		return 0, "", err
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return 0, "", err
	}

	key := "session:" + token
	if err := a.redis.Set(ctx, key, userID, 24*time.Hour).Err(); err != nil {
		return 0, "", err
	}

	return userID, token, nil
}

func (a *AuthModule) ValidateTokenJWT(ctx context.Context, token string) (string, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := parsedToken.Claims.(jwt.MapClaims); ok && parsedToken.Valid {
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			return "", errors.New("invalid user_id in token")
		}
		return fmt.Sprintf("%d", int64(userIDFloat)), nil
	}

	return "", errors.New("invalid token")
}

func (a *AuthModule) ValidateTokenSession(ctx context.Context, token string) (string, error) {
	key := "session:" + token
	userID, err := a.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", errors.New("invalid token")
	} else if err != nil {
		return "", err
	}

	ttl, err := a.redis.TTL(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return "", err
	}

	// Sliding expiration, refreshed at most once every few hours
	if ttl < 20*time.Hour {
		if err := a.redis.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
			return "", err
		}
	}

	return userID, nil
}
