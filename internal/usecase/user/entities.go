package user

type UpsertInput struct {
	DisplayName string `json:"displayName" validate:"max=255"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
	// Role may request "manager" on first registration; "admin" is never granted here.
	Role string `json:"role" validate:"omitempty,oneof=user manager admin"`
}

type SetRoleInput struct {
	Role string `json:"role" validate:"required"`
}

type SuspendInput struct {
	Suspended *bool  `json:"suspended" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

type RoleView struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
