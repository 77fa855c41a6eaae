package generation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/jsonlist"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- 写路径 ---

// SaveGeneration 在单个事务中持久化一个世代及其成员交叉行，提交后广播变更。
// 插入是insert-or-ignore语义；成员宝可梦可以尚未入库。
func SaveGeneration(ctx context.Context, record *remote.GenerationRecord) error {
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := Generation{Name: record.Name, Index: record.Index}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("无法写入世代 %s: %w", record.Name, err)
		}
		for _, member := range record.Members {
			junction := GenerationPokemon{GenerationName: record.Name, PokemonName: member}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&junction).Error; err != nil {
				return fmt.Errorf("无法写入世代成员关系 %s<->%s: %w", record.Name, member, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	database.Changes.Publish(database.TopicGenerations, database.TopicGenerationPokemons)
	return nil
}

// SaveOverview 写入或刷新世代概览行(固定哨兵主键，全库仅此一行)。
func SaveOverview(ctx context.Context, names []string) error {
	row := GenerationOverview{
		ID:    OverviewID,
		Names: jsonlist.Marshal(names),
		Count: len(names),
	}
	err := database.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("无法写入世代概览: %w", err)
	}
	database.Changes.Publish(database.TopicGenerationOverview)
	return nil
}

// --- 读路径 ---

// GetGenerationByName 按名称查询单个世代。行不存在时返回(nil, nil)。
func GetGenerationByName(name string) (*Generation, error) {
	var row Generation
	err := database.DB.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetGenerationByIndex 按世代序号查询单个世代。行不存在时返回(nil, nil)。
func GetGenerationByIndex(index int) (*Generation, error) {
	var row Generation
	err := database.DB.Where("`index` = ?", index).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetOverview 查询世代概览行。行不存在时返回(nil, nil)。
func GetOverview() (*GenerationOverview, error) {
	var row GenerationOverview
	err := database.DB.First(&row, OverviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MemberNames 返回某世代在交叉表中登记的全部成员名。
func MemberNames(generationName string) ([]string, error) {
	var names []string
	err := database.DB.Model(&GenerationPokemon{}).
		Where("generation_name = ?", generationName).
		Order("pokemon_name asc").
		Pluck("pokemon_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取世代 %s 的成员名单: %w", generationName, err)
	}
	return names, nil
}

// ListSnapshot 是"全部世代"观察查询的单次快照。
type ListSnapshot struct {
	Generations []Generation
	Overview    *GenerationOverview
}

func loadListSnapshot() (ListSnapshot, error) {
	var snapshot ListSnapshot
	if err := database.DB.Order("`index` asc").Find(&snapshot.Generations).Error; err != nil {
		return snapshot, err
	}
	overview, err := GetOverview()
	if err != nil {
		return snapshot, err
	}
	snapshot.Overview = overview
	return snapshot, nil
}

// --- 订阅式观察 ---

// ObserveGenerationByName 持续观察单个世代行。行缺失时发射nil而不是错误。
func ObserveGenerationByName(ctx context.Context, name string) <-chan stream.Emission[*Generation] {
	topics := []string{database.TopicGenerations}
	return stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) (*Generation, error) {
		return GetGenerationByName(name)
	})
}

// ObserveGenerationByIndex 持续观察按序号定位的世代行。
func ObserveGenerationByIndex(ctx context.Context, index int) <-chan stream.Emission[*Generation] {
	topics := []string{database.TopicGenerations}
	return stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) (*Generation, error) {
		return GetGenerationByIndex(index)
	})
}

// ObserveAllGenerations 持续观察全部世代行及概览。
func ObserveAllGenerations(ctx context.Context) <-chan stream.Emission[ListSnapshot] {
	topics := []string{database.TopicGenerations, database.TopicGenerationOverview}
	return stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) (ListSnapshot, error) {
		return loadListSnapshot()
	})
}

// DescribeKey 把name或序号归一成日志与错误消息里的标识文本。
func DescribeKey(key string) string {
	if _, err := strconv.Atoi(key); err == nil {
		return "世代 #" + key
	}
	return fmt.Sprintf("世代 %q", key)
}
