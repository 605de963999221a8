package jobx

import (
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrNoHandler      = jobxErrors.Register("NO_HANDLER", errx.TypeValidation, http.StatusBadRequest, "No handler registered for job type")
	ErrInvalidJob     = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, http.StatusBadRequest, "Invalid job definition")
	ErrAlreadyRunning = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, http.StatusConflict, "Worker is already running")
)
