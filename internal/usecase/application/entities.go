package application

import "github.com/shopspring/decimal"

type CreateApplicationInput struct {
	LoanID        string          `json:"loanId" validate:"required"`
	FirstName     string          `json:"firstName" validate:"required,max=128"`
	LastName      string          `json:"lastName" validate:"required,max=128"`
	ContactNumber string          `json:"contactNumber" validate:"required,max=32"`
	NationalID    string          `json:"nationalId" validate:"required,max=64"`
	IncomeSource  string          `json:"incomeSource" validate:"max=255"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome" validate:"gte=0,dec2"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0,dec2"`
	Reason        string          `json:"reason"`
	Address       string          `json:"address"`
	ExtraNotes    string          `json:"extraNotes"`
}

type PayFeeInput struct {
	TransactionID string `json:"transactionId" validate:"required"`
}
