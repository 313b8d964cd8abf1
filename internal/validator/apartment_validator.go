package validator

import (
	"context"
	"reflect"

	"app/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type apartmentValidator struct {
	v *validator.Validate
}

// Usecaseは interface を依存注入
func NewApartmentValidator() usecase.ApartmentValidator {
	v := validator.New()

	//decimal.Decimalをfloat64として扱わせる（gte/gt用）
	v.RegisterCustomTypeFunc(decimalAsFloat, decimal.Decimal{})

	return &apartmentValidator{v: v}
}

// フィールド単位のエラーを集める。問題なければ空のmap
func (av *apartmentValidator) ValidateApartment(ctx context.Context, in usecase.ApartmentInput) map[string]string {
	err := av.v.StructCtx(ctx, in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"non_field_errors": "invalid payload"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonFieldName(fe.Field())] = messageFor(fe)
	}
	return fields
}

func decimalAsFloat(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Goのフィールド名をAPIのフィールド名へ
func jsonFieldName(name string) string {
	switch name {
	case "Name":
		return "name"
	case "Slug":
		return "slug"
	case "Description":
		return "description"
	case "Price":
		return "price"
	case "NumberOfRooms":
		return "number_of_rooms"
	case "Square":
		return "square"
	case "Availability":
		return "availability"
	default:
		return name
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "invalid value"
	}
}
