package api

import (
	"github.com/SlpAus/pokedex-cache-backend/internal/favourite"
	"github.com/SlpAus/pokedex-cache-backend/internal/generation"
	"github.com/SlpAus/pokedex-cache-backend/internal/pokemon"
	"github.com/SlpAus/pokedex-cache-backend/internal/ptype"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 系统状态路由
		api.GET("/status", GetStatus)

		// 宝可梦相关的路由组 /api/pokemon
		pokemonRoutes := api.Group("/pokemon")
		{
			pokemonRoutes.GET("/:key", pokemon.GetPokemon)
			pokemonRoutes.GET("/:key/watch", pokemon.WatchPokemonSSE)
			pokemonRoutes.PUT("/:key/favourite", favourite.SetFavouriteHandler)
			pokemonRoutes.PUT("/:key/assets", favourite.SetAssetPathHandler)
		}

		// 物种入口：按物种名解析到默认形态的详情
		api.GET("/species/:name/pokemon", pokemon.GetPokemonBySpecies)

		// 形态本地资源路径
		api.PUT("/varieties/:name/artwork", favourite.SetVarietyArtworkHandler)

		// 属性相关的路由组 /api/types
		typeRoutes := api.Group("/types")
		{
			typeRoutes.GET("", ptype.GetAllTypes)
			typeRoutes.GET("/watch", ptype.WatchAllTypesSSE)
			typeRoutes.GET("/:name", ptype.GetType)
			typeRoutes.GET("/:name/watch", ptype.WatchTypeByNameSSE)
			typeRoutes.GET("/:name/pokemon", pokemon.GetPokemonOfType)
			typeRoutes.GET("/:name/pokemon/watch", pokemon.WatchPokemonOfTypeSSE)
		}

		// 世代相关的路由组 /api/generations
		generationRoutes := api.Group("/generations")
		{
			generationRoutes.GET("", generation.GetAllGenerations)
			generationRoutes.GET("/watch", generation.WatchAllGenerationsSSE)
			generationRoutes.GET("/:key", generation.GetGeneration)
			generationRoutes.GET("/:key/watch", generation.WatchGenerationSSE)
			generationRoutes.GET("/:key/pokemon", pokemon.GetPokemonOfGeneration)
			generationRoutes.GET("/:key/pokemon/watch", pokemon.WatchPokemonOfGenerationSSE)
		}
	}
}
