package handler

import "github.com/intersect-health/fhir-api/internal/core/domain"

// errorResponse documents the envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
}

type userListResponse struct {
	Total  int64          `json:"total"`
	Offset int            `json:"offset"`
	Items  []*domain.User `json:"items"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
