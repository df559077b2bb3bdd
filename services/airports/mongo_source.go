package airports

import (
	"context"

	airportRepo "flightbot/database/repository/airport"
	"flightbot/models"
)

// MongoSource loads airports from a repository backed by MongoDB.
type MongoSource struct {
	repo airportRepo.AirportRepository
}

func NewMongoSource(repo airportRepo.AirportRepository) *MongoSource {
	return &MongoSource{repo: repo}
}

func (s *MongoSource) Name() string { return "mongo" }

func (s *MongoSource) Load(ctx context.Context) ([]models.Airport, error) {
	return s.repo.ListWithIATA(ctx)
}
