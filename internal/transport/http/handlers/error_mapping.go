package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorMapping pairs a usecase sentinel with the HTTP response it produces.
type errorMapping struct {
	sentinel error
	status   int
	message  string
}

type errorMappings []errorMapping

// respond writes the response of the first mapping whose sentinel matches err.
// Unmapped errors answer 500 with the fallback message so internal detail
// never reaches the client.
func (m errorMappings) respond(c *gin.Context, err error, fallback string) {
	for _, em := range m {
		if em.sentinel == nil {
			continue
		}
		if errors.Is(err, em.sentinel) {
			c.JSON(em.status, NewErrorResponse(c, em.message))
			return
		}
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallback))
}
