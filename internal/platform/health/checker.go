package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/lifecycle"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// getRedisRunID 从Redis服务器信息中提取run_id
func getRedisRunID() (string, error) {
	ctx, cancel := context.WithTimeout(database.Ctx, pingTimeout)
	defer cancel()
	info, err := database.RDB.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("无法在Redis INFO中找到run_id")
	}
	return matches[1], nil
}

// InitializeRunID 在应用启动时执行一次，获取并设置初始的run_id。
// Redis不可用不是致命错误：响应缓存会被旁路，检查器之后会接手恢复。
func InitializeRunID() {
	if database.RDB == nil {
		fmt.Println("健康检查: Redis未配置，跳过Run ID初始化。")
		return
	}
	runID, err := getRedisRunID()
	if err != nil {
		fmt.Printf("警告: 无法在启动时获取Redis Run ID，响应缓存暂时停用: %v\n", err)
		database.UpdateStatus(false, "")
		globalStatus.Assess(false, "")
		return
	}
	database.SetInitialRunID(runID)
	globalStatus.SetInitialRunID(runID)
	fmt.Printf("获取初始Redis Run ID成功: %s\n", runID)
}

// triggerAtomicFlush 执行一次原子的、自校验的响应缓存清空。
// 只有在清空期间Redis没有再次重启的情况下，才认为清空有效。
func triggerAtomicFlush(idBeforeFlush string) bool {
	fmt.Println("健康检查: 正在清空远程响应缓存...")
	if err := remote.FlushResponseCache(database.Ctx); err != nil {
		fmt.Printf("健康检查错误: 清空远程响应缓存失败: %v\n", err)
		return false
	}

	idAfterFlush, err := getRedisRunID()
	if err != nil {
		fmt.Println("健康检查错误: 清空响应缓存后无法连接到Redis，本次清空无效。")
		return false
	}

	if idBeforeFlush != idAfterFlush {
		fmt.Printf("健康检查错误: 清空期间检测到Redis再次重启 (run_id: %s -> %s)。本次清空无效。\n", idBeforeFlush, idAfterFlush)
		return false
	}

	globalStatus.MarkFlushComplete(true, idAfterFlush)
	fmt.Println("健康检查: 响应缓存清空成功并通过原子性校验。")
	return true
}

// PerformCheck 执行一次完整的健康检查和可能的修复操作。
func PerformCheck() {
	currentRunID, err := getRedisRunID()
	if err != nil {
		// 无法连接到Redis，直接标记为不可用
		database.UpdateStatus(false, "")
		globalStatus.Assess(false, "")
		return
	}

	needsFlush := globalStatus.Assess(true, currentRunID)
	if needsFlush {
		if triggerAtomicFlush(currentRunID) {
			// 只有清空成功，响应缓存才重新可用
			database.UpdateStatus(true, currentRunID)
		} else {
			globalStatus.MarkFlushComplete(false, "")
			database.UpdateStatus(false, "")
		}
		return
	}

	database.UpdateStatus(true, currentRunID)
}

// StartRedisHealthCheck 启动一个后台Goroutine来定期执行健康检查。
// 它接收一个lifecycle.Handle来管理其生命周期。
func StartRedisHealthCheck(handle *lifecycle.Handle) {
	defer handle.Close()
	if database.RDB == nil {
		fmt.Println("健康检查: Redis未配置，健康检查器不启动。")
		return
	}
	fmt.Println("Redis健康检查器已启动。")

	for {
		if err := handle.Sleep(checkInterval); err != nil {
			fmt.Println("健康检查器: 休眠被中断，正在关闭...")
			return
		}
		PerformCheck()
	}
}
