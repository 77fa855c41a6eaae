package ptype

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/jsonlist"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- 写路径 ---

// UpsertTypeInTx 在给定事务中写入一个属性及其成员交叉行。
// 插入是insert-or-ignore语义: 已存在的行保持原值不被覆盖。
// 交叉行只要求成员名，成员宝可梦本身可以尚未入库。
func UpsertTypeInTx(tx *gorm.DB, record *remote.TypeRecord) error {
	row := Type{
		Name:             record.Name,
		DoubleDamageTo:   jsonlist.Marshal(record.DoubleDamageTo),
		DoubleDamageFrom: jsonlist.Marshal(record.DoubleDamageFrom),
		HalfDamageTo:     jsonlist.Marshal(record.HalfDamageTo),
		HalfDamageFrom:   jsonlist.Marshal(record.HalfDamageFrom),
		NoDamageTo:       jsonlist.Marshal(record.NoDamageTo),
		NoDamageFrom:     jsonlist.Marshal(record.NoDamageFrom),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("无法写入属性 %s: %w", record.Name, err)
	}

	for _, pokemonName := range record.PokemonNames {
		junction := PokemonType{PokemonName: pokemonName, TypeName: record.Name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&junction).Error; err != nil {
			return fmt.Errorf("无法写入属性成员关系 %s<->%s: %w", pokemonName, record.Name, err)
		}
	}
	return nil
}

// SaveType 在单个事务中持久化一个属性聚合记录，提交后广播变更。
func SaveType(ctx context.Context, record *remote.TypeRecord) error {
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return UpsertTypeInTx(tx, record)
	})
	if err != nil {
		return err
	}
	database.Changes.Publish(database.TopicTypes, database.TopicPokemonTypes)
	return nil
}

// SaveOverview 写入或刷新属性概览行(固定哨兵主键，全库仅此一行)。
// 概览是完整性判据而非展示数据，远程重新抓取后允许整行覆盖。
func SaveOverview(ctx context.Context, names []string) error {
	row := TypeOverview{
		ID:    OverviewID,
		Names: jsonlist.Marshal(names),
		Count: len(names),
	}
	err := database.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("无法写入属性概览: %w", err)
	}
	database.Changes.Publish(database.TopicTypeOverview)
	return nil
}

// --- 读路径 ---

// GetTypeByName 按名称查询单个属性。行不存在时返回(nil, nil)。
func GetTypeByName(name string) (*Type, error) {
	var row Type
	err := database.DB.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetOverview 查询属性概览行。行不存在时返回(nil, nil)。
func GetOverview() (*TypeOverview, error) {
	var row TypeOverview
	err := database.DB.First(&row, OverviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListSnapshot 是"全部属性"观察查询的单次快照。
// 完整性判定需要行集和概览两者，所以封装在一起发射。
type ListSnapshot struct {
	Types    []Type
	Overview *TypeOverview
}

func loadListSnapshot() (ListSnapshot, error) {
	var snapshot ListSnapshot
	if err := database.DB.Order("name asc").Find(&snapshot.Types).Error; err != nil {
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

// ObserveTypeByName 持续观察单个属性行。行缺失时发射nil而不是错误。
func ObserveTypeByName(ctx context.Context, name string) <-chan stream.Emission[*Type] {
	topics := []string{database.TopicTypes}
	return stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) (*Type, error) {
		return GetTypeByName(name)
	})
}

// ObserveAllTypes 持续观察全部属性行及概览。
func ObserveAllTypes(ctx context.Context) <-chan stream.Emission[ListSnapshot] {
	topics := []string{database.TopicTypes, database.TopicTypeOverview}
	return stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) (ListSnapshot, error) {
		return loadListSnapshot()
	})
}
