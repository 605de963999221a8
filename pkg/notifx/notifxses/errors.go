package notifxses

import (
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

var sesErrors = errx.NewRegistry("NOTIFX_SES")

var (
	ErrSendFailed = sesErrors.Register("SEND_FAILED", errx.TypeExternal, http.StatusInternalServerError, "SES send email failed")
)
