package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Apartmentは賃貸物件。ownerとslugは作成時に確定して以後変更不可
type Apartment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"type:varchar(100);not null;index" json:"name"`
	Slug          string          `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(8,2);not null;index:idx_apartments_price_availability" json:"price"`
	NumberOfRooms int             `gorm:"not null;index" json:"number_of_rooms"`
	Square        decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"square"`
	Availability  bool            `gorm:"not null;default:true;index:idx_apartments_price_availability" json:"availability"`
	OwnerID       int64           `gorm:"not null;index" json:"-"`
	Owner         User            `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// APIに返す形（owner_emailはJOINしたownerから入れる）
type ApartmentDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	NumberOfRooms int             `json:"number_of_rooms"`
	Square        decimal.Decimal `json:"square"`
	Availability  bool            `json:"availability"`
	OwnerEmail    string          `json:"owner_email"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToDTOはJOIN済みのOwnerを畳み込んでAPI用の形にする
func (a Apartment) ToDTO() ApartmentDTO {
	return ApartmentDTO{
		ID:            a.ID,
		Name:          a.Name,
		Slug:          a.Slug,
		Description:   a.Description,
		Price:         a.Price,
		NumberOfRooms: a.NumberOfRooms,
		Square:        a.Square,
		Availability:  a.Availability,
		OwnerEmail:    a.Owner.Email,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
