package api

import (
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/api/errs"
	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(c *gin.Context, err error) {
	httpStatus := errs.HTTPStatus(err)
	message := err.Error()
	if httpStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	c.JSON(httpStatus, errorResponse{Error: message, Code: domain.Kind(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: domain.Kind(domain.ErrValidation)})
}
