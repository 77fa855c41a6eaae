package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/pkg/lifecycle"
)

const (
	snapshotPrefix = "pokedex-"
	snapshotSuffix = ".db"
	// keepSnapshots 是保留的历史快照数量，更早的快照会被轮换删除。
	keepSnapshots = 5
)

var backupMutex sync.Mutex // 避免意外竞态

func backupInterval() time.Duration {
	if config.Cfg != nil && config.Cfg.Backup.IntervalMinutes > 0 {
		return time.Duration(config.Cfg.Backup.IntervalMinutes) * time.Minute
	}
	return 30 * time.Minute
}

func backupDir() string {
	if config.Cfg != nil && config.Cfg.Backup.Dir != "" {
		return config.Cfg.Backup.Dir
	}
	return "./backups"
}

// StartBackupScheduler 启动一个后台Goroutine来定期执行数据库快照
// 它接收一个lifecycle.Handle来管理其生命周期
func StartBackupScheduler(handle *lifecycle.Handle) {
	defer handle.Close() // 确保在退出时通知管理器
	fmt.Println("本地缓存库快照调度器已启动。")

	for {
		// 使用可中断的休眠来代替ticker。
		// 这使得整个循环可以在收到停机信号时立刻从休眠中唤醒并退出。
		if err := handle.Sleep(backupInterval()); err != nil {
			fmt.Println("快照调度器: 休眠被中断，正在关闭...")
			return
		}

		fmt.Println("快照调度器: 正在执行定时快照...")
		if err := CreateSnapshot(handle.Ctx()); err != nil {
			// 如果错误是由于停机信号导致的，则静默退出
			if err != context.Canceled && err != context.DeadlineExceeded {
				fmt.Printf("快照调度器错误: 执行快照失败: %v\n", err)
			}
		} else {
			fmt.Println("快照调度器: 快照成功。")
		}
	}
}

// CreateSnapshot 用VACUUM INTO把当前缓存库原子地复制到快照目录。
// VACUUM INTO 在一个读事务里产出一致的副本，不会阻塞正在进行的写入。
func CreateSnapshot(ctx context.Context) error {
	backupMutex.Lock()
	defer backupMutex.Unlock()

	dir := backupDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("无法创建快照目录 %s: %w", dir, err)
	}

	// VACUUM INTO 要求目标文件不存在，时间戳命名天然避开冲突
	name := snapshotPrefix + time.Now().UTC().Format("20060102-150405") + snapshotSuffix
	target := filepath.Join(dir, name)

	if err := database.DB.WithContext(ctx).Exec("VACUUM INTO ?", target).Error; err != nil {
		return fmt.Errorf("VACUUM INTO %s 失败: %w", target, err)
	}

	if err := pruneSnapshots(dir); err != nil {
		fmt.Printf("警告: 清理历史快照失败: %v\n", err)
	}
	return nil
}

// pruneSnapshots 按文件名排序，删除超出保留数量的最早快照。
func pruneSnapshots(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || len(name) <= len(snapshotPrefix)+len(snapshotSuffix) {
			continue
		}
		if name[:len(snapshotPrefix)] == snapshotPrefix && name[len(name)-len(snapshotSuffix):] == snapshotSuffix {
			names = append(names, name)
		}
	}
	if len(names) <= keepSnapshots {
		return nil
	}

	// 文件名内嵌UTC时间戳，字典序即时间序
	sort.Strings(names)
	for _, name := range names[:len(names)-keepSnapshots] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
