package helper

import (
	"net/http"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/logger"
)

// ParseResponse fills the defaults of a service response: a status message
// when none was given and an error log line for server-side failures.
func ParseResponse(r *types.Response) *types.Response {
	if r == nil {
		return &types.Response{Code: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError)}
	}
	if r.Code == 0 {
		r.Code = http.StatusOK
		if r.Error != nil {
			r.Code = http.StatusInternalServerError
		}
	}
	if r.Message == "" {
		r.Message = http.StatusText(r.Code)
	}
	if r.Code >= http.StatusInternalServerError && r.Error != nil {
		logger.Error.Printf("%d %s: %v", r.Code, r.Message, r.Error)
	}
	return r
}

// ToResponseAPI renders a service response as the JSON envelope.
func ToResponseAPI(r *types.Response) *types.ResponseAPI {
	res := &types.ResponseAPI{
		Status:  r.Code,
		Message: r.Message,
		Data:    r.Data,
		Meta:    r.Meta,
	}
	if r.Error != nil {
		res.Error = r.Error.Error()
	}
	return res
}
