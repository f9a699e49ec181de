package domain

import (
	"errors"
	"strings"
)

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceExists      = errors.New("resource already exists")
	ErrUnsupportedResource = errors.New("unsupported resource type")
	ErrInvalidResource     = errors.New("invalid resource")
)

// ResourceTypes are the FHIR resource types served by the API. Each one is
// stored in its own collection named after the type.
var ResourceTypes = []string{
	"Patient",
	"Practitioner",
	"Organization",
	"Device",
	"Location",
	"Observation",
	"DiagnosticReport",
	"Specimen",
	"Encounter",
	"Condition",
	"Appointment",
	"ServiceRequest",
	"Task",
	"Medication",
	"MedicationRequest",
	"CareTeam",
	"Communication",
	"Procedure",
	"FamilyMemberHistory",
	"Immunization",
	"AllergyIntolerance",
	"DocumentReference",
}

// IsSupportedResource reports whether t names a served resource type.
// Matching is case-sensitive, as in FHIR.
func IsSupportedResource(t string) bool {
	for _, known := range ResourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Resource is an opaque FHIR document. Only resourceType and id are inspected.
type Resource map[string]any

// ID returns the resource's id, or "" when absent or not a string.
func (r Resource) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Type returns the declared resourceType, or "".
func (r Resource) Type() string {
	t, _ := r["resourceType"].(string)
	return t
}

// IDPrefix is the prefix used for generated ids of resource type t,
// e.g. "patient" for Patient.
func IDPrefix(t string) string {
	return strings.ToLower(t)
}
