package favourite

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SlpAus/pokedex-cache-backend/internal/pokemon"
	"github.com/gin-gonic/gin"
)

// mutationStatus 把服务层错误映射为HTTP状态码:
// 目标行尚未入库是404，存储自身的失败是500。
func mutationStatus(err error) int {
	if errors.Is(err, pokemon.ErrNotCached) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// --- API请求模型 ---

type SetFavouriteRequest struct {
	Value bool `json:"value"`
}

type SetAssetPathRequest struct {
	// Kind 是素材种类: sprite / artwork / cry
	Kind string `json:"kind" binding:"required"`
	Path string `json:"path" binding:"required"`
}

// SetFavouriteHandler 处理 PUT /api/pokemon/:key/favourite
func SetFavouriteHandler(c *gin.Context) {
	var req SetFavouriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}

	if err := SetFavourite(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		c.JSON(mutationStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("key"), "isFavourite": req.Value})
}

// SetAssetPathHandler 处理 PUT /api/pokemon/:key/assets
// 素材的下载与落盘由外部助手完成，这里只登记本地路径。
func SetAssetPathHandler(c *gin.Context) {
	var req SetAssetPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}

	name := c.Param("key")
	var err error
	switch strings.ToLower(req.Kind) {
	case "sprite":
		err = SetLocalSpritePath(c.Request.Context(), name, req.Path)
	case "artwork":
		err = SetLocalArtworkPath(c.Request.Context(), name, req.Path)
	case "cry":
		err = SetLocalCryPath(c.Request.Context(), name, req.Path)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知的素材种类: " + req.Kind})
		return
	}
	if err != nil {
		c.JSON(mutationStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "kind": req.Kind, "path": req.Path})
}

// SetVarietyArtworkHandler 处理 PUT /api/varieties/:name/artwork
func SetVarietyArtworkHandler(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}

	if err := SetLocalVarietyArtworkPath(c.Request.Context(), c.Param("name"), req.Path); err != nil {
		c.JSON(mutationStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "path": req.Path})
}
