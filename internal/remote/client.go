package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/pkg/flight"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// responseCachePrefix 是远程响应在Redis热缓存中的键前缀
const responseCachePrefix = "remote_response:"

// Client 是远程图鉴目录的HTTP客户端。
// 它负责三件事: 带超时的HTTP调用、同路径并发请求的合并(singleflight)、
// 以及GET响应在Redis中的热缓存。所有错误在离开本包前都被归一为*Error。
type Client struct {
	baseURL  string
	http     *http.Client
	cacheTTL time.Duration
	maxDepth int
	flight   singleflight.Group
}

// globalClient 是remote模块的私有单例实例
var globalClient *Client

// InitClient 用给定配置初始化全局客户端。应用启动时调用一次。
func InitClient(cfg config.RemoteConfig) {
	globalClient = NewClient(cfg)
	fmt.Printf("远程目录客户端已初始化: %s\n", cfg.BaseURL)
}

// DefaultClient 返回全局客户端实例。
func DefaultClient() *Client {
	return globalClient
}

// NewClient 构造一个独立的客户端，测试中可以指向httptest服务器。
func NewClient(cfg config.RemoteConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout()},
		cacheTTL: cfg.CacheTTL(),
		maxDepth: cfg.MaxChainDepth,
	}
}

// getJSON 获取一个资源并反序列化到out。
// resource和key只用于构造面向用户的领域错误。
func (c *Client) getJSON(ctx context.Context, path, resource, key string, out any) error {
	body, err := c.fetchBody(ctx, path, resource, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return malformedError(resource, key, err)
	}
	return nil
}

// fetchBody 返回资源的原始响应体，同路径的并发请求只触发一次网络调用。
// 共享的那次调用不随任何单个订阅者取消，等待者只受自己的ctx约束。
func (c *Client) fetchBody(ctx context.Context, path, resource, key string) ([]byte, error) {
	return flight.Do(ctx, &c.flight, path, func(ctx context.Context) ([]byte, error) {
		return c.fetchBodyOnce(ctx, path, resource, key)
	})
}

func (c *Client) fetchBodyOnce(ctx context.Context, path, resource, key string) ([]byte, error) {
	cacheKey := responseCachePrefix + path

	// 1. 先查Redis热缓存（不健康时直接跳过）
	if database.RDB != nil && database.IsRedisHealthy() {
		cached, err := database.RDB.Get(ctx, cacheKey).Bytes()
		if err == nil {
			return cached, nil
		}
		if err != redis.Nil {
			fmt.Printf("警告: 读取远程响应热缓存失败: %v\n", err)
		}
	}

	// 2. 发起带超时的HTTP调用
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, transportError(resource, key, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(resource, key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFoundError(resource, key)
	case resp.StatusCode != http.StatusOK:
		return nil, transportError(resource, key, fmt.Errorf("远程目录返回状态码 %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(resource, key, err)
	}

	// 3. 回填热缓存，失败只告警不影响结果
	if database.RDB != nil && database.IsRedisHealthy() && c.cacheTTL > 0 {
		if err := database.RDB.Set(ctx, cacheKey, body, c.cacheTTL).Err(); err != nil {
			fmt.Printf("警告: 写入远程响应热缓存失败: %v\n", err)
		}
	}
	return body, nil
}

// FlushResponseCache 清空Redis中的全部远程响应热缓存。
// 健康检查在Redis重启恢复后调用它，避免读到上一个实例遗留的半旧数据。
func FlushResponseCache(ctx context.Context) error {
	if database.RDB == nil {
		return nil
	}
	iter := database.RDB.Scan(ctx, 0, responseCachePrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("扫描远程响应热缓存失败: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := database.RDB.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("清空远程响应热缓存失败: %w", err)
	}
	fmt.Printf("已清空 %d 条远程响应热缓存。\n", len(keys))
	return nil
}
