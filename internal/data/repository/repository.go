package repository

import (
	"temple-backend/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User     UserRepository
	Donation DonationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(db, log),
		Donation: NewDonationRepository(db, log),
	}
}
