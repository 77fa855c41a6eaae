package ptype

import (
	"net/http"

	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/jsonlist"
	"github.com/SlpAus/pokedex-cache-backend/pkg/sse"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"github.com/gin-gonic/gin"
)

// --- API响应模型 ---

type TypeResponse struct {
	Name             string   `json:"name"`
	DoubleDamageTo   []string `json:"doubleDamageTo"`
	DoubleDamageFrom []string `json:"doubleDamageFrom"`
	HalfDamageTo     []string `json:"halfDamageTo"`
	HalfDamageFrom   []string `json:"halfDamageFrom"`
	NoDamageTo       []string `json:"noDamageTo"`
	NoDamageFrom     []string `json:"noDamageFrom"`
}

func toTypeResponse(t *Type) TypeResponse {
	return TypeResponse{
		Name:             t.Name,
		DoubleDamageTo:   jsonlist.Unmarshal(t.DoubleDamageTo),
		DoubleDamageFrom: jsonlist.Unmarshal(t.DoubleDamageFrom),
		HalfDamageTo:     jsonlist.Unmarshal(t.HalfDamageTo),
		HalfDamageFrom:   jsonlist.Unmarshal(t.HalfDamageFrom),
		NoDamageTo:       jsonlist.Unmarshal(t.NoDamageTo),
		NoDamageFrom:     jsonlist.Unmarshal(t.NoDamageFrom),
	}
}

func toTypeResponses(rows []Type) []TypeResponse {
	out := make([]TypeResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toTypeResponse(&rows[i]))
	}
	return out
}

// errorStatus 把领域错误映射为HTTP状态码。
func errorStatus(err error) int {
	if remote.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// GetAllTypes 处理 GET /api/types
// 一次性请求: 折叠订阅流，返回第一个终态结果。
func GetAllTypes(c *gin.Context) {
	ch := WatchAllTypes(c.Request.Context())
	r, ok := stream.First(c.Request.Context(), ch)
	if !ok {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "请求已取消"})
		return
	}
	if r.State == stream.StateError {
		c.JSON(errorStatus(r.Err), gin.H{"error": r.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTypeResponses(r.Value))
}

// GetType 处理 GET /api/types/:name
func GetType(c *gin.Context) {
	name := c.Param("name")
	ch := WatchTypeByName(c.Request.Context(), name)
	r, ok := stream.First(c.Request.Context(), ch)
	if !ok {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "请求已取消"})
		return
	}
	if r.State == stream.StateError {
		c.JSON(errorStatus(r.Err), gin.H{"error": r.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTypeResponse(r.Value))
}

// WatchTypeByNameSSE 处理 GET /api/types/:name/watch
// 以SSE形式持续下发三态结果，本地缓存的每次相关变更都会触发新事件。
func WatchTypeByNameSSE(c *gin.Context) {
	name := c.Param("name")
	ch := WatchTypeByName(c.Request.Context(), name)
	sse.StreamResults(c, ch, func(t *Type) any { return toTypeResponse(t) })
}

// WatchAllTypesSSE 处理 GET /api/types/watch
func WatchAllTypesSSE(c *gin.Context) {
	ch := WatchAllTypes(c.Request.Context())
	sse.StreamResults(c, ch, func(rows []Type) any { return toTypeResponses(rows) })
}
