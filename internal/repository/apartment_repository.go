package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一覧検索の条件。nilのフィールドは条件に加えない
type ApartmentListQuery struct {
	Availability  *bool
	NumberOfRooms *int
	Search        string
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	Page          int
	Limit         int
}

// 物件の永続化（保存・取得）だけを約束。
type ApartmentRepository interface {
	List(ctx context.Context, q ApartmentListQuery) ([]model.Apartment, int64, error)
	FindBySlug(ctx context.Context, slug string) (model.Apartment, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	Create(ctx context.Context, a model.Apartment) (model.Apartment, error)
	Update(ctx context.Context, a model.Apartment) error
	DeleteByID(ctx context.Context, id int64) error
}
