package generation

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/sse"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"github.com/gin-gonic/gin"
)

// --- API响应模型 ---

type GenerationResponse struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

func toGenerationResponse(g *Generation) GenerationResponse {
	return GenerationResponse{Name: g.Name, Index: g.Index}
}

func toGenerationResponses(rows []Generation) []GenerationResponse {
	out := make([]GenerationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toGenerationResponse(&rows[i]))
	}
	return out
}

func errorStatus(err error) int {
	if remote.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// GetAllGenerations 处理 GET /api/generations
func GetAllGenerations(c *gin.Context) {
	ch := WatchAllGenerations(c.Request.Context())
	r, ok := stream.First(c.Request.Context(), ch)
	if !ok {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "请求已取消"})
		return
	}
	if r.State == stream.StateError {
		c.JSON(errorStatus(r.Err), gin.H{"error": r.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, toGenerationResponses(r.Value))
}

// GetGeneration 处理 GET /api/generations/:key
// key既可以是世代名，也可以是世代序号。
func GetGeneration(c *gin.Context) {
	key := c.Param("key")
	var ch <-chan stream.Result[*Generation]
	if index, err := strconv.Atoi(key); err == nil {
		ch = WatchGenerationByIndex(c.Request.Context(), index)
	} else {
		ch = WatchGenerationByName(c.Request.Context(), key)
	}

	r, ok := stream.First(c.Request.Context(), ch)
	if !ok {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "请求已取消"})
		return
	}
	if r.State == stream.StateError {
		c.JSON(errorStatus(r.Err), gin.H{"error": r.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, toGenerationResponse(r.Value))
}

// WatchGenerationSSE 处理 GET /api/generations/:key/watch
func WatchGenerationSSE(c *gin.Context) {
	key := c.Param("key")
	var ch <-chan stream.Result[*Generation]
	if index, err := strconv.Atoi(key); err == nil {
		ch = WatchGenerationByIndex(c.Request.Context(), index)
	} else {
		ch = WatchGenerationByName(c.Request.Context(), key)
	}
	sse.StreamResults(c, ch, func(g *Generation) any { return toGenerationResponse(g) })
}

// WatchAllGenerationsSSE 处理 GET /api/generations/watch
func WatchAllGenerationsSSE(c *gin.Context) {
	ch := WatchAllGenerations(c.Request.Context())
	sse.StreamResults(c, ch, func(rows []Generation) any { return toGenerationResponses(rows) })
}
