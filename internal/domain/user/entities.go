package user

import (
	"strings"
	"time"

	"loanlink-backend/internal/domain/apperr"
)

var (
	ErrNotFound     = apperr.New(apperr.KindNotFound, "user not found")
	ErrEmailTaken   = apperr.New(apperr.KindConflict, "email already registered")
	ErrInvalidRole  = apperr.New(apperr.KindValidation, "invalid role")
	ErrReasonNeeded = apperr.New(apperr.KindValidation, "suspend reason is required")
	ErrSuspended    = apperr.New(apperr.KindForbidden, "account is suspended")
	ErrAdminRequest = apperr.New(apperr.KindForbidden, "admin role cannot be self-assigned")
	ErrUnverified   = apperr.New(apperr.KindForbidden, "email must be verified before admin access is granted")
)

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Table: users
type User struct {
	ID            string    `gorm:"column:id;primaryKey;size:32" bson:"_id" json:"id"`
	Email         string    `gorm:"column:email;size:255;not null;uniqueIndex:ux_users_email" bson:"email" json:"email"`
	DisplayName   string    `gorm:"column:display_name;size:255" bson:"display_name" json:"displayName"`
	PhotoURL      string    `gorm:"column:photo_url;type:text" bson:"photo_url" json:"photoURL,omitempty"`
	Role          Role      `gorm:"column:role;size:16;not null" bson:"role" json:"role"`
	IsSuspended   bool      `gorm:"column:is_suspended;not null;default:false" bson:"is_suspended" json:"isSuspended"`
	SuspendReason string    `gorm:"column:suspend_reason;type:text" bson:"suspend_reason" json:"suspendReason,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" bson:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// NormalizeEmail is the single place emails are canonicalised before lookups.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Suspend toggles the suspension flag. Lifting a suspension clears the reason.
func (u *User) Suspend(suspended bool, reason string) error {
	reason = strings.TrimSpace(reason)
	if suspended && reason == "" {
		return ErrReasonNeeded
	}
	u.IsSuspended = suspended
	if suspended {
		u.SuspendReason = reason
	} else {
		u.SuspendReason = ""
	}
	return nil
}
