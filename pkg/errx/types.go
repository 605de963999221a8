package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents unexpected server errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents invalid input rejected before reaching the core
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization represents missing or invalid credentials
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeForbidden represents an authenticated caller lacking a role or profile state
	TypeForbidden Type = "FORBIDDEN"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents resource conflict errors
	TypeConflict Type = "CONFLICT"

	// TypeBusiness represents domain rule violations such as exhausted attempts
	TypeBusiness Type = "BUSINESS"

	// TypeExternal represents failures of the identity provider or document store
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}
