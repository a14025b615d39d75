// Package api exposes the console's REST surface: query execution and
// translation plus edge package administration and delivery.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"srql-engine/internal/common"
)

// httpStatus maps domain error codes to transport status codes. Download
// token mismatches read as 401, exhausted tokens as 410, and lifecycle
// conflicts as 409, so callers can distinguish retry from re-issue.
func httpStatus(err error) int {
	switch common.CodeOf(err) {
	case common.ErrInvalidInput,
		common.ErrQueryInvalid,
		common.ErrQueryEntityUnknown,
		common.ErrQueryFieldUnknown,
		common.ErrQueryCursorInvalid,
		common.ErrQueryTimeRangeInvalid,
		common.ErrQueryNotReadOnly:
		return http.StatusBadRequest
	case common.ErrUnauthorized, common.ErrInvalidToken, common.ErrTokenExpired,
		common.ErrDownloadTokenInvalid:
		return http.StatusUnauthorized
	case common.ErrForbidden:
		return http.StatusForbidden
	case common.ErrNotFound, common.ErrPackageNotFound:
		return http.StatusNotFound
	case common.ErrConflict, common.ErrAlreadyExists,
		common.ErrPackageRevoked, common.ErrPackageDelivered:
		return http.StatusConflict
	case common.ErrPackageExpired:
		return http.StatusGone
	case common.ErrTimeout:
		return http.StatusGatewayTimeout
	case common.ErrUnavailable, common.ErrArtifactNotFound, common.ErrArtifactUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders the standard {error, details} body. Wrapped causes stay
// out of responses; details carries the domain error code.
func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var consoleErr *common.ConsoleError
	if errors.As(err, &consoleErr) {
		body["error"] = consoleErr.Message
		body["details"] = fmt.Sprintf("code %d", consoleErr.Code)
	}
	c.AbortWithStatusJSON(httpStatus(err), body)
}
