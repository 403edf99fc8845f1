package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MockJWTService implements the JWTService interface for testing.
// Default behavior issues predictable tokens; individual operations can be
// overridden through the *Fn fields.
type MockJWTService struct {
	GenerateTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFn func(ctx context.Context, tokenString string) (*Claims, error)

	// Token is returned by the default GenerateToken implementation.
	Token string

	// UserID is the user the default ValidateToken implementation resolves to.
	UserID uuid.UUID
}

// Ensure MockJWTService implements JWTService interface
var _ JWTService = (*MockJWTService)(nil)

// NewMockJWTService creates a new MockJWTService with default implementations.
func NewMockJWTService() *MockJWTService {
	return &MockJWTService{
		Token:  "mock-token",
		UserID: uuid.New(),
	}
}

// GenerateToken returns the configured token.
func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}
	return m.Token, nil
}

// ValidateToken accepts the configured token and rejects everything else.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	if tokenString != m.Token {
		return nil, ErrInvalidToken
	}
	now := time.Now().UTC()
	return &Claims{
		UserID:    m.UserID,
		TokenType: "access",
		Subject:   m.UserID.String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		ID:        uuid.New().String(),
	}, nil
}
