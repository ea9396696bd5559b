package public

import (
	"github.com/tixgate/internal/cache"
	"github.com/tixgate/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Healthz 存活探针
func (h *Handler) Healthz(c *gin.Context) {
	var (
		queueEnabled bool
		providers    = []string{}
	)
	if h != nil && h.Container != nil {
		queueEnabled = h.QueueClient.Enabled()
		if h.Registry != nil {
			providers = h.Registry.ListProviders()
		}
	}
	response.Success(c, gin.H{
		"status":    "ok",
		"redis":     cache.Enabled(),
		"queue":     queueEnabled,
		"providers": providers,
	})
}
