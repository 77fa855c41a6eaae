package favourite

import (
	"context"

	"github.com/SlpAus/pokedex-cache-backend/internal/pokemon"
)

// favourite 模块是本地存储之上的薄直通层:
// 用户拥有的收藏标记和素材本地路径都是入库后唯一允许的单列更新，
// 这里不做任何缓存或网络工作，只代理到pokemon仓库。

// SetFavourite 切换某只宝可梦的收藏标记。
func SetFavourite(ctx context.Context, name string, favourite bool) error {
	return pokemon.SetFavourite(ctx, name, favourite)
}

// SetLocalSpritePath 写回图标素材的本地路径。
func SetLocalSpritePath(ctx context.Context, name, path string) error {
	return pokemon.SetLocalSpritePath(ctx, name, path)
}

// SetLocalArtworkPath 写回立绘素材的本地路径。
func SetLocalArtworkPath(ctx context.Context, name, path string) error {
	return pokemon.SetLocalArtworkPath(ctx, name, path)
}

// SetLocalCryPath 写回叫声素材的本地路径。
func SetLocalCryPath(ctx context.Context, name, path string) error {
	return pokemon.SetLocalCryPath(ctx, name, path)
}

// SetLocalVarietyArtworkPath 写回某个形态立绘的本地路径。
func SetLocalVarietyArtworkPath(ctx context.Context, varietyName, path string) error {
	return pokemon.SetLocalVarietyArtworkPath(ctx, varietyName, path)
}
