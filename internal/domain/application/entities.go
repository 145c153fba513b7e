package application

import (
	"database/sql/driver"
	"fmt"
	"time"

	"loanlink-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = apperr.New(apperr.KindNotFound, "application not found")
	ErrNotOwner      = apperr.New(apperr.KindForbidden, "application belongs to another user")
	ErrCannotCancel  = apperr.New(apperr.KindValidation, "cannot cancel: application is not pending")
	ErrNotPending    = apperr.New(apperr.KindValidation, "application is not pending")
	ErrNotPayable    = apperr.New(apperr.KindValidation, "canceled applications cannot be paid")
	ErrAlreadyPaid   = apperr.New(apperr.KindConflict, "application fee already paid")
	ErrUnknownLoan   = apperr.New(apperr.KindValidation, "referenced loan does not exist")
	ErrInvalidStatus = apperr.New(apperr.KindValidation, "invalid application status")
	ErrInvalidInput  = apperr.New(apperr.KindValidation, "invalid application input")
	ErrTxReused      = apperr.New(apperr.KindConflict, "transaction already recorded for another application")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusCanceled Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

type FeeStatus string

const (
	FeeUnpaid FeeStatus = "unpaid"
	FeePaid   FeeStatus = "paid"
)

// TransactionID is written as NULL while empty so unpaid rows never collide
// on the unique index.
type TransactionID string

func (t TransactionID) Value() (driver.Value, error) {
	if t == "" {
		return nil, nil
	}
	return string(t), nil
}

func (t *TransactionID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = ""
	case string:
		*t = TransactionID(v)
	case []byte:
		*t = TransactionID(v)
	default:
		return fmt.Errorf("transaction id: unsupported type %T", src)
	}
	return nil
}

// Payment is the confirmed fee payment, stored inline with the application.
type Payment struct {
	TransactionID TransactionID `gorm:"column:transaction_id;size:255;uniqueIndex:ux_applications_payment_tx" bson:"transaction_id" json:"transactionId,omitempty"`
	Email         string        `gorm:"column:email;size:255" bson:"email" json:"email,omitempty"`
	Amount        int64         `gorm:"column:amount" bson:"amount" json:"amount,omitempty"`
	Currency      string        `gorm:"column:currency;size:8" bson:"currency" json:"currency,omitempty"`
	ConfirmedAt   *time.Time    `gorm:"column:confirmed_at" bson:"confirmed_at,omitempty" json:"confirmedAt,omitempty"`
}

// Table: loan_applications
type Application struct {
	ID string `gorm:"column:id;primaryKey;size:32" bson:"_id" json:"id"`
	// Display code, e.g. APP-09C1FF2E
	ApplicationID string `gorm:"column:application_id;size:16;not null;uniqueIndex:ux_applications_application_id" bson:"application_id" json:"applicationId"`
	// Loans.id of the product applied for
	LoanID    string `gorm:"column:loan_id;size:32;not null;index:idx_applications_loan" bson:"loan_id" json:"loanId"`
	LoanTitle string `gorm:"column:loan_title;size:255" bson:"loan_title" json:"loanTitle"`

	UserEmail     string          `gorm:"column:user_email;size:255;not null;index:idx_applications_user" bson:"user_email" json:"userEmail"`
	FirstName     string          `gorm:"column:first_name;size:128" bson:"first_name" json:"firstName"`
	LastName      string          `gorm:"column:last_name;size:128" bson:"last_name" json:"lastName"`
	ContactNumber string          `gorm:"column:contact_number;size:32" bson:"contact_number" json:"contactNumber"`
	NationalID    string          `gorm:"column:national_id;size:64" bson:"national_id" json:"nationalId"`
	IncomeSource  string          `gorm:"column:income_source;size:255" bson:"income_source" json:"incomeSource"`
	MonthlyIncome decimal.Decimal `gorm:"column:monthly_income;type:decimal(18,2)" bson:"monthly_income" json:"monthlyIncome"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(18,2)" bson:"amount" json:"amount"`
	Reason        string          `gorm:"column:reason;type:text" bson:"reason" json:"reason"`
	Address       string          `gorm:"column:address;type:text" bson:"address" json:"address"`
	ExtraNotes    string          `gorm:"column:extra_notes;type:text" bson:"extra_notes" json:"extraNotes"`

	Status    Status    `gorm:"column:status;size:16;not null;index:idx_applications_status" bson:"status" json:"status"`
	FeeStatus FeeStatus `gorm:"column:application_fee_status;size:16;not null" bson:"application_fee_status" json:"applicationFeeStatus"`
	Payment   Payment   `gorm:"embedded;embeddedPrefix:payment_" bson:"payment" json:"payment"`

	PaidAt     *time.Time `gorm:"column:paid_at" bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" bson:"approved_at,omitempty" json:"approvedAt,omitempty"`
	RejectedAt *time.Time `gorm:"column:rejected_at" bson:"rejected_at,omitempty" json:"rejectedAt,omitempty"`
	CanceledAt *time.Time `gorm:"column:canceled_at" bson:"canceled_at,omitempty" json:"canceledAt,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" bson:"updated_at" json:"updatedAt"`
}

func (Application) TableName() string { return "loan_applications" }

func (a *Application) OwnedBy(email string) bool { return email != "" && a.UserEmail == email }

// State guard: only pending -> approved
func (a *Application) Approve(now time.Time) error {
	if a.Status != StatusPending {
		return ErrNotPending
	}
	a.Status = StatusApproved
	a.ApprovedAt = &now
	return nil
}

// State guard: only pending -> rejected
func (a *Application) Reject(now time.Time) error {
	if a.Status != StatusPending {
		return ErrNotPending
	}
	a.Status = StatusRejected
	a.RejectedAt = &now
	return nil
}

// Cancel checks ownership before state so non-owners learn nothing about status.
func (a *Application) Cancel(email string, now time.Time) error {
	if !a.OwnedBy(email) {
		return ErrNotOwner
	}
	if a.Status != StatusPending {
		return ErrCannotCancel
	}
	a.Status = StatusCanceled
	a.CanceledAt = &now
	return nil
}

// CanPay validates a fee payment attempt. ErrAlreadyPaid lets callers
// short-circuit before contacting the payment provider.
func (a *Application) CanPay(email string) error {
	if !a.OwnedBy(email) {
		return ErrNotOwner
	}
	if a.FeeStatus == FeePaid {
		return ErrAlreadyPaid
	}
	if a.Status == StatusCanceled {
		return ErrNotPayable
	}
	return nil
}

// MarkPaid records a confirmed payment. Fee status only ever moves unpaid -> paid.
func (a *Application) MarkPaid(p Payment, now time.Time) {
	if a.FeeStatus == FeePaid {
		return
	}
	a.FeeStatus = FeePaid
	a.Payment = p
	a.PaidAt = &now
}
