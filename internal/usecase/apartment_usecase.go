package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// usecaseがValidatorInterfaceに依存する約束
type ApartmentValidator interface {
	ValidateApartment(ctx context.Context, in ApartmentInput) map[string]string
}

// 作成・更新の入力DTO（validateタグはvalidator側が解釈する）
type ApartmentInput struct {
	Name          string          `validate:"required,max=100"`
	Slug          string          `validate:"omitempty,max=120"`
	Description   string          `validate:"required"`
	Price         decimal.Decimal `validate:"gte=0"`
	NumberOfRooms int             `validate:"gt=0"`
	Square        decimal.Decimal `validate:"gt=0"`
	Availability  bool
}

// GET /apartments の入力DTO
type ListApartmentsInput struct {
	Availability  *bool
	NumberOfRooms *int
	Search        string
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	Page          int
}

// ページング済み一覧（next/previousはページ番号、端ではnull）
type ApartmentListOutput struct {
	Count    int64                `json:"count"`
	Next     *int                 `json:"next"`
	Previous *int                 `json:"previous"`
	Results  []model.ApartmentDTO `json:"results"`
}

type ApartmentUsecase struct {
	apartments repo.ApartmentRepository
	validator  ApartmentValidator
	pageSize   int
}

// DI
func NewApartmentUsecase(
	apartments repo.ApartmentRepository,
	validator ApartmentValidator,
	pageSize int,
) *ApartmentUsecase {
	return &ApartmentUsecase{
		apartments: apartments,
		validator:  validator,
		pageSize:   pageSize,
	}
}

// Listは公開の物件一覧。絞り込みは全てANDで組み合わせる
func (u *ApartmentUsecase) List(ctx context.Context, in ListApartmentsInput) (ApartmentListOutput, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}

	items, total, err := u.apartments.List(ctx, repo.ApartmentListQuery{
		Availability:  in.Availability,
		NumberOfRooms: in.NumberOfRooms,
		Search:        strings.TrimSpace(in.Search),
		PriceMin:      in.PriceMin,
		PriceMax:      in.PriceMax,
		Page:          page,
		Limit:         u.pageSize,
	})
	if err != nil {
		return ApartmentListOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	out := ApartmentListOutput{
		Count:   total,
		Results: make([]model.ApartmentDTO, 0, len(items)),
	}
	for _, a := range items {
		out.Results = append(out.Results, a.ToDTO())
	}

	if int64(page)*int64(u.pageSize) < total {
		next := page + 1
		out.Next = &next
	}
	if page > 1 {
		prev := page - 1
		out.Previous = &prev
	}

	return out, nil
}

// GetBySlugは公開の物件詳細
func (u *ApartmentUsecase) GetBySlug(ctx context.Context, slugStr string) (model.ApartmentDTO, error) {
	a, err := u.apartments.FindBySlug(ctx, slugStr)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return a.ToDTO(), nil
}

// Createは物件を作成する。ownerは認証済みユーザーで強制上書き。
// slug未指定ならnameから生成し、使用済みならフィールドエラーにする
func (u *ApartmentUsecase) Create(ctx context.Context, ownerID int64, in ApartmentInput) (model.ApartmentDTO, error) {
	if ownerID <= 0 {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//永続化の前に入力検証を済ませる
	if fields := u.validator.ValidateApartment(ctx, in); len(fields) > 0 {
		return model.ApartmentDTO{}, &ValidationError{Fields: fields}
	}

	slugStr := strings.TrimSpace(in.Slug)
	if slugStr == "" {
		slugStr = slug.Make(in.Name)
	}
	if slugStr == "" {
		return model.ApartmentDTO{}, &ValidationError{Fields: map[string]string{
			"slug": "could not generate slug from name",
		}}
	}

	taken, err := u.apartments.ExistsBySlug(ctx, slugStr)
	if err != nil {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if taken {
		return model.ApartmentDTO{}, &ValidationError{Fields: map[string]string{
			"slug": "already in use",
		}}
	}

	created, err := u.apartments.Create(ctx, model.Apartment{
		Name:          strings.TrimSpace(in.Name),
		Slug:          slugStr,
		Description:   in.Description,
		Price:         in.Price,
		NumberOfRooms: in.NumberOfRooms,
		Square:        in.Square,
		Availability:  in.Availability,
		OwnerID:       ownerID,
	})
	if err != nil {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//owner_emailを返すためJOIN済みの行を取り直す
	a, err := u.apartments.FindBySlug(ctx, created.Slug)
	if err != nil {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return a.ToDTO(), nil
}

// Updateは全置換。slugは再生成せず、ownerは変更不可
func (u *ApartmentUsecase) Update(ctx context.Context, userID int64, slugStr string, in ApartmentInput) (model.ApartmentDTO, error) {
	if userID <= 0 {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	a, err := u.apartments.FindBySlug(ctx, slugStr)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//オーナーだけが書き込める
	if a.OwnerID != userID {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	if fields := u.validator.ValidateApartment(ctx, in); len(fields) > 0 {
		return model.ApartmentDTO{}, &ValidationError{Fields: fields}
	}

	a.Name = strings.TrimSpace(in.Name)
	a.Description = in.Description
	a.Price = in.Price
	a.NumberOfRooms = in.NumberOfRooms
	a.Square = in.Square
	a.Availability = in.Availability

	if err := u.apartments.Update(ctx, a); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.ApartmentDTO{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.ApartmentDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	updated, err := u.apartments.FindBySlug(ctx, slugStr)
	if err != nil {
		return model.ApartmentDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return updated.ToDTO(), nil
}

// Deleteはオーナーだけが実行できる。二回目の削除は404
func (u *ApartmentUsecase) Delete(ctx context.Context, userID int64, slugStr string) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	a, err := u.apartments.FindBySlug(ctx, slugStr)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if a.OwnerID != userID {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}

	if err := u.apartments.DeleteByID(ctx, a.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return nil
}
