package api

import (
	"errors"
	"net/http"

	"ChiliPulse/internal/domain/models"
	"ChiliPulse/internal/usecase"
	xhttp "ChiliPulse/pkg/http"
	"ChiliPulse/pkg/util"
)

// toAppError maps evaluation and dashboard errors onto transport errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, models.ErrUnknownCity):
		return xhttp.NewAppError("ERR_UNKNOWN_CITY", "city", err.Error(), http.StatusBadRequest).
			WithParam("options", models.Cities).WithError(err)
	case errors.Is(err, models.ErrOutOfRangeDate):
		return xhttp.NewAppError("ERR_OUT_OF_RANGE_DATE", "date", err.Error(), http.StatusBadRequest).
			WithParam("min", util.FormatDate(models.MinDate)).WithError(err)
	case errors.Is(err, models.ErrDateNotCovered):
		return xhttp.NewAppError("ERR_DATE_NOT_COVERED", "date", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return xhttp.NewAppError("ERR_UPSTREAM_UNAVAILABLE", "", "inference service unavailable", http.StatusBadGateway).WithError(err)
	case errors.Is(err, models.ErrMalformedResponse):
		return xhttp.NewAppError("ERR_MALFORMED_RESPONSE", "", "inference service returned an unreadable response", http.StatusBadGateway).WithError(err)
	case errors.Is(err, models.ErrStaleResult):
		return xhttp.NewAppError("ERR_STALE_RESULT", "", err.Error(), http.StatusConflict).WithError(err)
	case errors.Is(err, usecase.ErrNoPanel):
		return xhttp.NotFoundError("nothing plotted for this session yet").WithError(err)
	default:
		return xhttp.InternalError("something went wrong").WithError(err)
	}
}
