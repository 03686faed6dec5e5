package dto

type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"` // ["ADMIN","STAFF"]
}

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" validate:"required,oneof=ADMIN STAFF"`
}
