package usecase

import (
	"temple-backend/internal/data/repository"
	"temple-backend/pkg/cache"
	"temple-backend/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	Donation DonationService
}

func NewService(repo *repository.Repository, store *cache.Store, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Auth:     NewAuthService(repo, store, config, log),
		Donation: NewDonationService(repo, config, log),
	}
}
