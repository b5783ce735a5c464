package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
	"venue-approval-backend/internal/security"
)

type authService struct {
	orgRepo repository.OrganizationRepository
	tokens  security.TokenManager
}

func NewAuthService(orgRepo repository.OrganizationRepository, tokens security.TokenManager) AuthService {
	return &authService{
		orgRepo: orgRepo,
		tokens:  tokens,
	}
}

func (s *authService) Login(ctx context.Context, name, secret string) (string, *domain.Organization, error) {
	org, err := s.orgRepo.GetByName(ctx, name)
	if err != nil {
		logger.Warn("Login for unknown organization", "name", name)
		return "", nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(org.PasswordHash), []byte(secret)); err != nil {
		logger.Warn("Login with wrong secret", "orgID", org.ID)
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(org.ID, org.Name, org.Level, org.IsVenueManager)
	if err != nil {
		return "", nil, err
	}
	logger.Info("Organization logged in", "orgID", org.ID)
	return token, org, nil
}
