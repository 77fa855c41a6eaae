package startup

import (
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/generation"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/metadata"
	"github.com/SlpAus/pokedex-cache-backend/internal/pokemon"
	"github.com/SlpAus/pokedex-cache-backend/internal/ptype"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	remote.InitClient(config.Cfg.Remote)

	if err := metadata.PrimeDB(); err != nil {
		return err
	}
	if err := ptype.PrimeDB(); err != nil {
		return err
	}
	if err := generation.PrimeDB(); err != nil {
		return err
	}
	if err := pokemon.PrimeDB(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}
