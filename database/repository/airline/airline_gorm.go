package airlineRepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Airline maps a carrier code to its display name.
type Airline struct {
	ID        uint           `gorm:"primaryKey"`
	Code      string         `gorm:"column:code;unique"`
	Name      string         `gorm:"column:name"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Airline) TableName() string {
	return "m_airlines"
}

// GormAirlineRepo reads carrier names from postgres.
type GormAirlineRepo struct {
	db *gorm.DB
}

func NewGormAirlineRepo(db *gorm.DB) *GormAirlineRepo {
	return &GormAirlineRepo{db: db}
}

// Names returns code -> name for every active airline row.
func (r *GormAirlineRepo) Names(ctx context.Context) (map[string]string, error) {
	var rows []Airline
	if err := r.db.WithContext(ctx).Select("code", "name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list airlines: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Code == "" || row.Name == "" {
			continue
		}
		names[row.Code] = row.Name
	}
	return names, nil
}
