package pokemon

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/jsonlist"
	"github.com/SlpAus/pokedex-cache-backend/pkg/sse"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"github.com/gin-gonic/gin"
)

// --- API响应模型 ---

type SpeciesResponse struct {
	Name        string   `json:"name"`
	IsBaby      bool     `json:"isBaby"`
	IsLegendary bool     `json:"isLegendary"`
	IsMythical  bool     `json:"isMythical"`
	Shape       string   `json:"shape"`
	Genus       string   `json:"genus"`
	EvolvesFrom string   `json:"evolvesFrom,omitempty"`
	FlavorTexts []string `json:"flavorTexts"`
}

type EvolutionEntryResponse struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	IsBaby bool   `json:"isBaby"`
}

type VarietyResponse struct {
	Name             string `json:"name"`
	IsDefault        bool   `json:"isDefault"`
	LocalArtworkPath string `json:"localArtworkPath,omitempty"`
}

type PokemonResponse struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	Height           int            `json:"height"`
	Weight           int            `json:"weight"`
	Stats            map[string]int `json:"stats"`
	SpriteURL        string         `json:"spriteUrl"`
	ArtworkURL       string         `json:"artworkUrl"`
	CryURL           string         `json:"cryUrl"`
	LocalSpritePath  string         `json:"localSpritePath,omitempty"`
	LocalArtworkPath string         `json:"localArtworkPath,omitempty"`
	LocalCryPath     string         `json:"localCryPath,omitempty"`
	IsFavourite      bool           `json:"isFavourite"`
	TypeNames        []string       `json:"types"`
}

type DetailResponse struct {
	PokemonResponse
	Species   SpeciesResponse          `json:"species"`
	Varieties []VarietyResponse        `json:"varieties"`
	Evolution []EvolutionEntryResponse `json:"evolution"`
}

func toPokemonResponse(p *Pokemon, typeNames []string) PokemonResponse {
	stats := map[string]int{}
	if len(p.Stats) > 0 {
		_ = json.Unmarshal(p.Stats, &stats)
	}
	if typeNames == nil {
		typeNames = []string{}
	}
	return PokemonResponse{
		ID:               p.PokemonID,
		Name:             p.Name,
		Height:           p.Height,
		Weight:           p.Weight,
		Stats:            stats,
		SpriteURL:        p.SpriteURL,
		ArtworkURL:       p.ArtworkURL,
		CryURL:           p.CryURL,
		LocalSpritePath:  p.LocalSpritePath,
		LocalArtworkPath: p.LocalArtworkPath,
		LocalCryPath:     p.LocalCryPath,
		IsFavourite:      p.IsFavourite,
		TypeNames:        typeNames,
	}
}

func toDetailResponse(d *Detail) DetailResponse {
	resp := DetailResponse{
		PokemonResponse: toPokemonResponse(&d.Pokemon, d.TypeNames),
		Species: SpeciesResponse{
			Name:        d.Species.Name,
			IsBaby:      d.Species.IsBaby,
			IsLegendary: d.Species.IsLegendary,
			IsMythical:  d.Species.IsMythical,
			Shape:       d.Species.Shape,
			Genus:       d.Species.Genus,
			EvolvesFrom: d.Species.EvolvesFrom,
			FlavorTexts: jsonlist.Unmarshal(d.Species.FlavorTexts),
		},
		Varieties: []VarietyResponse{},
		Evolution: []EvolutionEntryResponse{},
	}
	for _, v := range d.Varieties {
		resp.Varieties = append(resp.Varieties, VarietyResponse{
			Name:             v.Name,
			IsDefault:        v.IsDefault,
			LocalArtworkPath: v.LocalArtworkPath,
		})
	}
	for _, link := range d.Evolution {
		resp.Evolution = append(resp.Evolution, EvolutionEntryResponse{
			Rank:   link.Rank,
			Name:   link.Name,
			IsBaby: link.IsBaby,
		})
	}
	return resp
}

func toMemberResponses(rows []Pokemon) []PokemonResponse {
	out := make([]PokemonResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toPokemonResponse(&rows[i], nil))
	}
	return out
}

func errorStatus(err error) int {
	if remote.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func replyFirst[T any](c *gin.Context, ch <-chan stream.Result[T], encode func(T) any) {
	r, ok := stream.First(c.Request.Context(), ch)
	if !ok {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "请求已取消"})
		return
	}
	if r.State == stream.StateError {
		c.JSON(errorStatus(r.Err), gin.H{"error": r.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, encode(r.Value))
}

// GetPokemon 处理 GET /api/pokemon/:key
// key既可以是名称也可以是远程稳定id。
func GetPokemon(c *gin.Context) {
	key := c.Param("key")
	var ch <-chan stream.Result[*Detail]
	if id, err := strconv.Atoi(key); err == nil {
		ch = WatchPokemonByID(c.Request.Context(), id)
	} else {
		ch = WatchPokemonByName(c.Request.Context(), key)
	}
	replyFirst(c, ch, func(d *Detail) any { return toDetailResponse(d) })
}

// GetPokemonBySpecies 处理 GET /api/species/:name/pokemon
func GetPokemonBySpecies(c *gin.Context) {
	ch := WatchPokemonBySpeciesName(c.Request.Context(), c.Param("name"))
	replyFirst(c, ch, func(d *Detail) any { return toDetailResponse(d) })
}

// WatchPokemonSSE 处理 GET /api/pokemon/:key/watch
func WatchPokemonSSE(c *gin.Context) {
	key := c.Param("key")
	var ch <-chan stream.Result[*Detail]
	if id, err := strconv.Atoi(key); err == nil {
		ch = WatchPokemonByID(c.Request.Context(), id)
	} else {
		ch = WatchPokemonByName(c.Request.Context(), key)
	}
	sse.StreamResults(c, ch, func(d *Detail) any { return toDetailResponse(d) })
}

// GetPokemonOfGeneration 处理 GET /api/generations/:key/pokemon
// 一次性请求返回第一个终态结果；要看增量补全请用watch端点。
func GetPokemonOfGeneration(c *gin.Context) {
	ch := WatchPokemonOfGeneration(c.Request.Context(), c.Param("key"))
	replyFirst(c, ch, func(rows []Pokemon) any { return toMemberResponses(rows) })
}

// WatchPokemonOfGenerationSSE 处理 GET /api/generations/:key/pokemon/watch
// 双流合并: 已缓存成员立即下发，远程对账逐步补齐缺口。
func WatchPokemonOfGenerationSSE(c *gin.Context) {
	ch := WatchPokemonOfGeneration(c.Request.Context(), c.Param("key"))
	sse.StreamResults(c, ch, func(rows []Pokemon) any { return toMemberResponses(rows) })
}

// GetPokemonOfType 处理 GET /api/types/:name/pokemon
func GetPokemonOfType(c *gin.Context) {
	ch := WatchPokemonOfType(c.Request.Context(), c.Param("name"))
	replyFirst(c, ch, func(rows []Pokemon) any { return toMemberResponses(rows) })
}

// WatchPokemonOfTypeSSE 处理 GET /api/types/:name/pokemon/watch
func WatchPokemonOfTypeSSE(c *gin.Context) {
	ch := WatchPokemonOfType(c.Request.Context(), c.Param("name"))
	sse.StreamResults(c, ch, func(rows []Pokemon) any { return toMemberResponses(rows) })
}
