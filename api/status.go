package api

import (
	"net/http"
	"time"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/health"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/metadata"
	"github.com/gin-gonic/gin"
)

// StatusResponse 汇总本地缓存与热缓存的运行状态。
type StatusResponse struct {
	CacheState             string `json:"cacheState"`
	ResponseCacheAvailable bool   `json:"responseCacheAvailable"`
	LastTypeSync           string `json:"lastTypeSync,omitempty"`
	LastGenerationSync     string `json:"lastGenerationSync,omitempty"`
}

// GetStatus 处理 GET /api/status
func GetStatus(c *gin.Context) {
	resp := StatusResponse{
		CacheState:             health.GetState().String(),
		ResponseCacheAvailable: database.IsRedisHealthy(),
	}

	if ts, err := metadata.GetSyncTime(database.DB, metadata.LastTypeOverviewSyncKey); err == nil && !ts.IsZero() {
		resp.LastTypeSync = ts.Format(time.RFC3339)
	}
	if ts, err := metadata.GetSyncTime(database.DB, metadata.LastGenerationOverviewSyncKey); err == nil && !ts.IsZero() {
		resp.LastGenerationSync = ts.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
