package server

import (
	"net/http"
	"time"

	"photoclash/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error      string    `json:"error"`
	Kind       string    `json:"kind"`
	StatusCode int       `json:"statusCode"`
	Timestamp  time.Time `json:"timestamp"`
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:      message,
		Kind:       kind,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
	})
}

// respondError maps a service error onto its HTTP status. Internal details are
// logged, never returned.
func respondError(c *gin.Context, err error) {
	kind := game.KindOf(err)
	status := statusForKind(kind)
	if kind == game.KindInternal {
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("request failed")
	}
	writeError(c, status, kind.String(), game.PublicMessage(err))
}

func statusForKind(kind game.Kind) int {
	switch kind {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
