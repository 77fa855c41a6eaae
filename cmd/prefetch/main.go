package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/SlpAus/pokedex-cache-backend/internal/generation"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/startup"
	"github.com/SlpAus/pokedex-cache-backend/internal/pokemon"
	"github.com/SlpAus/pokedex-cache-backend/internal/ptype"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
)

// 预热工具：在部署前把指定范围的远程目录数据抓取到本地缓存库，
// 让首个离线会话也能命中完整数据。
func main() {
	generations := flag.String("generations", "", "要预取的世代名，逗号分隔，'all' 表示全部")
	types := flag.String("types", "", "要预取的属性名，逗号分隔")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("配置加载失败: %v\n", err)
		os.Exit(1)
	}

	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)

	if err := startup.InitializeApplication(); err != nil {
		fmt.Printf("初始化失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 概览先行，世代/属性的名单都从这里来
	overview, ok := stream.First(ctx, generation.WatchAllGenerations(ctx))
	if !ok || overview.State == stream.StateError {
		fmt.Printf("无法获取世代概览: %v\n", overview.Err)
		os.Exit(1)
	}
	if r, ok := stream.First(ctx, ptype.WatchAllTypes(ctx)); !ok || r.State == stream.StateError {
		fmt.Printf("无法获取属性概览: %v\n", r.Err)
		os.Exit(1)
	}

	var generationNames []string
	if *generations == "all" {
		for _, g := range overview.Value {
			generationNames = append(generationNames, g.Name)
		}
	} else if *generations != "" {
		generationNames = strings.Split(*generations, ",")
	}

	for _, name := range generationNames {
		name = strings.TrimSpace(name)
		fmt.Printf("正在预取世代 %s 的成员...\n", name)
		if err := pokemon.PrefetchGeneration(ctx, name); err != nil {
			fmt.Printf("预取世代 %s 失败: %v\n", name, err)
			os.Exit(1)
		}
	}

	if *types != "" {
		for _, name := range strings.Split(*types, ",") {
			name = strings.TrimSpace(name)
			fmt.Printf("正在预取属性 %s 的成员...\n", name)
			if err := pokemon.PrefetchType(ctx, name); err != nil {
				fmt.Printf("预取属性 %s 失败: %v\n", name, err)
				os.Exit(1)
			}
		}
	}

	fmt.Println("预取完成。")
}
