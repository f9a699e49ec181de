package service

import "github.com/intersect-health/fhir-api/internal/core/ports"

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// normalizePage applies the default page size, caps it, and clamps offset.
func normalizePage(f ports.ListFilter) ports.ListFilter {
	if f.Count <= 0 {
		f.Count = defaultPageSize
	}
	if f.Count > maxPageSize {
		f.Count = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
