package loan

import (
	"strings"
	"time"

	"loanlink-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = apperr.New(apperr.KindNotFound, "loan not found")
	ErrNotOwner        = apperr.New(apperr.KindForbidden, "only the creating manager or an admin may modify this loan")
	ErrVisibilityAdmin = apperr.New(apperr.KindForbidden, "only an admin may change home-page visibility")
	ErrEmptyPatch      = apperr.New(apperr.KindValidation, "no fields to update")
	ErrInvalidInput    = apperr.New(apperr.KindValidation, "invalid loan input")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Table: loans
type Loan struct {
	// Opaque record id (32-char lowercase hex)
	ID string `gorm:"column:id;primaryKey;size:32" bson:"_id" json:"id"`
	// Display code, e.g. LN-3F9A6A1B
	LoanID      string          `gorm:"column:loan_id;size:16;not null;uniqueIndex:ux_loans_loan_id" bson:"loan_id" json:"loanId"`
	Title       string          `gorm:"column:title;size:255;not null" bson:"title" json:"title"`
	Description string          `gorm:"column:description;type:text" bson:"description" json:"description"`
	Category    string          `gorm:"column:category;size:64;index:idx_loans_category" bson:"category" json:"category"`
	Interest    decimal.Decimal `gorm:"column:interest;type:decimal(6,2)" bson:"interest" json:"interest"`
	MaxLimit    decimal.Decimal `gorm:"column:max_limit;type:decimal(18,2)" bson:"max_limit" json:"maxLimit"`
	EmiPlans    StringList      `gorm:"column:emi_plans;type:text" bson:"emi_plans" json:"emiPlans"`
	Images      StringList      `gorm:"column:images;type:text" bson:"images" json:"images"`
	ShowOnHome  bool            `gorm:"column:show_on_home;not null;default:false;index:idx_loans_show_on_home" bson:"show_on_home" json:"showOnHome"`
	Status      Status          `gorm:"column:status;size:16;not null" bson:"status" json:"status"`
	CreatedBy   string          `gorm:"column:created_by;size:255;not null;index:idx_loans_created_by" bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" bson:"updated_at" json:"updatedAt"`
	ApprovedAt  *time.Time      `gorm:"column:approved_at" bson:"approved_at,omitempty" json:"approvedAt,omitempty"`
	RejectedAt  *time.Time      `gorm:"column:rejected_at" bson:"rejected_at,omitempty" json:"rejectedAt,omitempty"`
}

func (Loan) TableName() string { return "loans" }

// CanModify reports whether the principal may edit or delete the loan.
func (l *Loan) CanModify(email string, isAdmin bool) bool {
	return isAdmin || (email != "" && l.CreatedBy == email)
}

// Approve and Reject are not guarded: a loan may be re-approved after a rejection.
func (l *Loan) Approve(now time.Time) {
	l.Status = StatusApproved
	l.ApprovedAt = &now
}

func (l *Loan) Reject(now time.Time) {
	l.Status = StatusRejected
	l.RejectedAt = &now
}

// Patch carries merge-patch semantics: nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Category    *string
	Interest    *decimal.Decimal
	MaxLimit    *decimal.Decimal
	EmiPlans    []string
	Images      []string
	ShowOnHome  *bool
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Interest == nil && p.MaxLimit == nil && p.EmiPlans == nil &&
		p.Images == nil && p.ShowOnHome == nil
}

// Apply merges the patch into l. A title that is blank after trimming is
// rejected before any field changes.
func (p Patch) Apply(l *Loan) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return ErrInvalidInput
		}
		l.Title = title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Interest != nil {
		l.Interest = *p.Interest
	}
	if p.MaxLimit != nil {
		l.MaxLimit = *p.MaxLimit
	}
	if p.EmiPlans != nil {
		l.EmiPlans = StringList(p.EmiPlans)
	}
	if p.Images != nil {
		l.Images = StringList(p.Images)
	}
	if p.ShowOnHome != nil {
		l.ShowOnHome = *p.ShowOnHome
	}
	return nil
}
