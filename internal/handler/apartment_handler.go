package handler

import (
	"net/http"
	"strconv"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := usecase.AsValidationError(err); ok {
		return c.JSON(http.StatusBadRequest, validationErrorResponse{
			Error:  "validation error",
			Fields: ve.Fields,
		})
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	c.Logger().Errorf("unexpected error: %v", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /apartments のAPI
type ApartmentHandler struct {
	uc *usecase.ApartmentUsecase
}

// DI
func NewApartmentHandler(uc *usecase.ApartmentUsecase) *ApartmentHandler {
	return &ApartmentHandler{uc: uc}
}

// 作成・更新のリクエストボディ。ownerは受け取らない（送られてきても無視される）
type apartmentRequest struct {
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	NumberOfRooms int             `json:"number_of_rooms"`
	Square        decimal.Decimal `json:"square"`
	Availability  *bool           `json:"availability"`
}

func (r apartmentRequest) toInput() usecase.ApartmentInput {
	availability := true
	if r.Availability != nil {
		availability = *r.Availability
	}
	return usecase.ApartmentInput{
		Name:          r.Name,
		Slug:          r.Slug,
		Description:   r.Description,
		Price:         r.Price,
		NumberOfRooms: r.NumberOfRooms,
		Square:        r.Square,
		Availability:  availability,
	}
}

// ListはGET /apartments のハンドラ
func (h *ApartmentHandler) List(c echo.Context) error {
	var in usecase.ListApartmentsInput

	//availability / number_of_rooms は完全一致
	if v := c.QueryParam("availability"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			in.Availability = &b
		}
	}
	if v := c.QueryParam("number_of_rooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.NumberOfRooms = &n
		}
	}

	in.Search = c.QueryParam("search")

	//価格帯。数値でない値はエラーにせず無視する
	if v := c.QueryParam("price_min"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			in.PriceMin = &d
		}
	}
	if v := c.QueryParam("price_max"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			in.PriceMax = &d
		}
	}

	// page（default 1、不正値も1扱い）
	in.Page = 1
	if v := c.QueryParam("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p >= 1 {
			in.Page = p
		}
	}

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// DetailはGET /apartments/:slug のハンドラ
func (h *ApartmentHandler) Detail(c echo.Context) error {
	a, err := h.uc.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, a)
}

// CreateはPOST /apartments のハンドラ
func (h *ApartmentHandler) Create(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)

	var req apartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	a, err := h.uc.Create(c.Request().Context(), userID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	c.Logger().Infof("apartment %s created by %s", a.Slug, a.OwnerEmail)
	return c.JSON(http.StatusCreated, a)
}

// UpdateはPUT/PATCH /apartments/:slug のハンドラ（全置換）
func (h *ApartmentHandler) Update(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)

	var req apartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	a, err := h.uc.Update(c.Request().Context(), userID, c.Param("slug"), req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	c.Logger().Infof("apartment %s updated by %s", a.Slug, a.OwnerEmail)
	return c.JSON(http.StatusOK, a)
}

// DeleteはDELETE /apartments/:slug のハンドラ
func (h *ApartmentHandler) Delete(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)

	slug := c.Param("slug")
	if err := h.uc.Delete(c.Request().Context(), userID, slug); err != nil {
		return writeError(c, err)
	}

	c.Logger().Infof("apartment %s deleted by user %d", slug, userID)
	return c.NoContent(http.StatusNoContent)
}
