// Package handler implements Nag's HTTP surface. Error responses funnel
// through problem.go's RFC-7807 envelope instead of an ad hoc error map.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Problem is an application/problem+json body (RFC 7807).
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(c *gin.Context, status int, title, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(status, Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func problemNotFound(c *gin.Context, detail string) {
	writeProblem(c, http.StatusNotFound, "Not Found", detail)
}

func problemConflict(c *gin.Context, detail string) {
	writeProblem(c, http.StatusConflict, "Conflict", detail)
}

func problemBadRequest(c *gin.Context, detail string) {
	writeProblem(c, http.StatusBadRequest, "Bad Request", detail)
}

func problemUnauthorized(c *gin.Context, detail string) {
	writeProblem(c, http.StatusUnauthorized, "Unauthorized", detail)
}

func problemInternal(c *gin.Context) {
	writeProblem(c, http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
}
