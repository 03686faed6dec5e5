package dto

type ListParams struct {
	Search  string `query:"search"`
	Keyword string `query:"keyword"`
	Review  string `query:"review"`
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
}

type LookupCreateRequest struct {
	Kind string `json:"kind" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
