// README: HTTP helper utilities for error mapping and write options.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skyfare/internal/modules/rates"
)

// writeError maps the gateway's typed errors to status codes so the admin
// screens can render field-level feedback.
func writeError(c *gin.Context, err error) {
	var ve *rates.ValidationError
	var nf *rates.NotFoundError
	var cf *rates.ConflictError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error(), "kind": nf.Kind})
	case errors.As(err, &cf):
		c.JSON(http.StatusConflict, gin.H{"error": cf.Error(), "current_version": cf.Actual})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// writeOpts reads the optimistic version check from the expected_version
// query parameter and the acting admin from the X-Admin-User header.
func writeOpts(c *gin.Context) rates.WriteOpts {
	var opts rates.WriteOpts
	if v := c.Query("expected_version"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.ExpectedVersion = n
		}
	}
	opts.ModifiedBy = c.GetHeader("X-Admin-User")
	return opts
}
