package repository

import (
	"context"
	"errors"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type ApartmentGormRepository struct {
	db *gorm.DB
}

// DI
func NewApartmentGormRepository(db *gorm.DB) *ApartmentGormRepository {
	return &ApartmentGormRepository{db: db}
}

// 物件一覧を、絞り込み/検索/価格帯/ページング付きで返す。
// owner_emailを返すためownerをJOINして取る
func (r *ApartmentGormRepository) List(ctx context.Context, q repo.ApartmentListQuery) ([]model.Apartment, int64, error) {
	var apartments []model.Apartment
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Apartment{})

	if q.Availability != nil {
		tx = tx.Where("availability = ?", *q.Availability)
	}
	if q.NumberOfRooms != nil {
		tx = tx.Where("number_of_rooms = ?", *q.NumberOfRooms)
	}

	// searchはnameとdescriptionのOR
	if strings.TrimSpace(q.Search) != "" {
		like := "%" + strings.TrimSpace(q.Search) + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	//価格帯（両端含む）
	if q.PriceMin != nil {
		tx = tx.Where("price >= ?", *q.PriceMin)
	}
	if q.PriceMax != nil {
		tx = tx.Where("price <= ?", *q.PriceMax)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Apartment{}, 0, err
	}

	//新しい順
	tx = tx.Joins("Owner").Order("apartments.created_at desc").Order("apartments.id desc")

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&apartments).Error; err != nil {
		return []model.Apartment{}, 0, err
	}

	return apartments, total, nil
}

// slugで物件を取得
func (r *ApartmentGormRepository) FindBySlug(ctx context.Context, slug string) (model.Apartment, error) {
	var a model.Apartment
	err := r.db.WithContext(ctx).Joins("Owner").Where("apartments.slug = ?", slug).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Apartment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Apartment{}, err
	}
	return a, nil
}

// slugの使用済みチェック
func (r *ApartmentGormRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Apartment{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 物件の作成
func (r *ApartmentGormRepository) Create(ctx context.Context, a model.Apartment) (model.Apartment, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.Apartment{}, err
	}
	return a, nil
}

// 物件の更新。slugとownerは更新対象に含めない
func (r *ApartmentGormRepository) Update(ctx context.Context, a model.Apartment) error {
	res := r.db.WithContext(ctx).Model(&model.Apartment{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"name":            a.Name,
		"description":     a.Description,
		"price":           a.Price,
		"number_of_rooms": a.NumberOfRooms,
		"square":          a.Square,
		"availability":    a.Availability,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 物件の削除
func (r *ApartmentGormRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Apartment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
