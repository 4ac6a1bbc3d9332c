package constants

import "net/http"

// APISuccess represents a standardized API success response with code and HTTP status.
// Use these predefined success constants for consistent API responses across the application.
type APISuccess struct {
	Code   string
	Status int
}

var (
	SuccessLinkCreated = APISuccess{
		Code:   CodeLinkCreated,
		Status: http.StatusCreated,
	}
	SuccessLinkFound = APISuccess{
		Code:   CodeLinkFound,
		Status: http.StatusOK,
	}
	SuccessStatsFound = APISuccess{
		Code:   CodeStatsFound,
		Status: http.StatusOK,
	}
	SuccessUploadPrepared = APISuccess{
		Code:   CodeUploadPrepared,
		Status: http.StatusOK,
	}
	SuccessAccountFound = APISuccess{
		Code:   CodeAccountFound,
		Status: http.StatusOK,
	}
	SuccessTokenLinked = APISuccess{
		Code:   CodeTokenLinked,
		Status: http.StatusOK,
	}
)
