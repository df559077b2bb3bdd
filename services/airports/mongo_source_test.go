package airports

import (
	"context"
	"errors"
	"testing"
	"time"

	"flightbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAirportRepo struct {
	mock.Mock
}

func (m *mockAirportRepo) ListWithIATA(ctx context.Context) ([]models.Airport, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.Airport), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestMongoSource_FeedsDirectory(t *testing.T) {
	repo := new(mockAirportRepo)
	repo.On("ListWithIATA", mock.Anything).Return([]models.Airport{
		{IATA: "SFO", Name: "San Francisco International Airport"},
	}, nil).Once()

	dir := NewDirectory(NewMongoSource(repo), zap.NewNop(), time.Second)
	sfo, err := dir.Resolve(context.Background(), "sfo")
	require.NoError(t, err)
	assert.Equal(t, "San Francisco International Airport", sfo.Name)

	_, err = dir.Resolve(context.Background(), "SFO")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestMongoSource_ErrorSurfacesAsUnavailable(t *testing.T) {
	repo := new(mockAirportRepo)
	repo.On("ListWithIATA", mock.Anything).Return(nil, errors.New("server selection timeout")).Once()

	dir := NewDirectory(NewMongoSource(repo), zap.NewNop(), time.Second)
	_, err := dir.Resolve(context.Background(), "SFO")
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
	repo.AssertExpectations(t)
}
