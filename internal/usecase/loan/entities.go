package loan

import (
	domain "loanlink-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type CreateLoanInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Category    string          `json:"category" validate:"max=64"`
	Interest    decimal.Decimal `json:"interest" validate:"gte=0,dec2"`
	MaxLimit    decimal.Decimal `json:"maxLimit" validate:"gt=0,dec2"`
	EmiPlans    []string        `json:"emiPlans"`
	Images      []string        `json:"images" validate:"dive,url"`
}

// UpdateLoanInput is a merge patch: absent fields are left untouched.
type UpdateLoanInput struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Category    *string          `json:"category" validate:"omitempty,max=64"`
	Interest    *decimal.Decimal `json:"interest" validate:"omitempty,gte=0,dec2"`
	MaxLimit    *decimal.Decimal `json:"maxLimit" validate:"omitempty,gt=0,dec2"`
	EmiPlans    []string         `json:"emiPlans"`
	Images      []string         `json:"images" validate:"omitempty,dive,url"`
	ShowOnHome  *bool            `json:"showOnHome"`
}

func (in UpdateLoanInput) patch() domain.Patch {
	return domain.Patch{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Interest:    in.Interest,
		MaxLimit:    in.MaxLimit,
		EmiPlans:    in.EmiPlans,
		Images:      in.Images,
		ShowOnHome:  in.ShowOnHome,
	}
}

type VisibilityInput struct {
	ShowOnHome *bool `json:"showOnHome" validate:"required"`
}
