package errx

// Validation builds an unregistered validation error.
func Validation(message string) *Error {
	return New(message, TypeValidation)
}
