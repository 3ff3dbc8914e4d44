package api

import (
	models "TuniCast/internal/domain/models"
	xhttp "TuniCast/pkg/http"
)

// appError maps a core error to an HTTP application error. Unknown errors
// fall through to a 500 so internals never leak to the client.
func appError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch models.CodeOf(err) {
	case models.ErrCodeInsufficientHistory:
		appErr = xhttp.UnprocessableError("not enough trading history for this instrument")
	case models.ErrCodeValidationData:
		appErr = xhttp.UnprocessableError("not enough sessions to run detector validation")
	case models.ErrCodeArtifactsMissing:
		appErr = xhttp.UnavailableError("forecast model artifacts are not available")
	case models.ErrCodeFeatureEngineering, models.ErrCodeScaling:
		appErr = xhttp.InternalError("feature computation failed")
	default:
		appErr = xhttp.InternalError("internal error")
	}
	return appErr.WithError(err)
}
