package pokemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/ptype"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/jsonlist"
	"github.com/SlpAus/pokedex-cache-backend/pkg/stream"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// marshalStats 把种族值表编码为JSON列。
func marshalStats(stats map[string]int) (datatypes.JSON, error) {
	if stats == nil {
		stats = map[string]int{}
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("无法编码种族值表: %w", err)
	}
	return datatypes.JSON(data), nil
}

// --- 写路径 ---

// SaveBundle 在单个事务中持久化一次聚合抓取的全部产物:
// 物种、宝可梦、属性、形态、进化谱系以及所有交叉行。
// 所有插入都是insert-or-ignore语义，并发写入同一行是无害竞争。
// 事务提交后统一广播受影响的表，绝不让并发读者看到半套数据。
func SaveBundle(ctx context.Context, bundle *remote.PokemonBundle) error {
	// 缺失必选外键属于程序性错误: 宁可丢弃这次写入并留下日志，
	// 也不能让一条没有物种的宝可梦行污染联接不变量
	if bundle.Pokemon.SpeciesName == "" || bundle.Species.Name == "" {
		fmt.Printf("警告: 聚合记录 %s 缺失必选的物种关联，本次写入被丢弃\n", bundle.Pokemon.Name)
		return nil
	}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 物种(必选关联先行)
		speciesRow := Species{
			Name:        bundle.Species.Name,
			IsBaby:      bundle.Species.IsBaby,
			IsLegendary: bundle.Species.IsLegendary,
			IsMythical:  bundle.Species.IsMythical,
			Shape:       bundle.Species.Shape,
			Genus:       bundle.Species.Genus,
			EvolvesFrom: bundle.Species.EvolvesFrom,
			FlavorTexts: jsonlist.Marshal(bundle.Species.FlavorTexts),
			ChainID:     bundle.Species.ChainID,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&speciesRow).Error; err != nil {
			return fmt.Errorf("无法写入物种 %s: %w", bundle.Species.Name, err)
		}

		// 2. 宝可梦主行
		statsJSON, err := marshalStats(bundle.Pokemon.Stats)
		if err != nil {
			return err
		}
		pokemonRow := Pokemon{
			PokemonID:   bundle.Pokemon.ID,
			Name:        bundle.Pokemon.Name,
			Height:      bundle.Pokemon.Height,
			Weight:      bundle.Pokemon.Weight,
			Stats:       statsJSON,
			SpriteURL:   bundle.Pokemon.SpriteURL,
			ArtworkURL:  bundle.Pokemon.ArtworkURL,
			CryURL:      bundle.Pokemon.CryURL,
			SpeciesName: bundle.Pokemon.SpeciesName,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pokemonRow).Error; err != nil {
			return fmt.Errorf("无法写入宝可梦 %s: %w", bundle.Pokemon.Name, err)
		}

		// 3. 宝可梦<->物种 交叉行
		ps := PokemonSpecies{PokemonName: bundle.Pokemon.Name, SpeciesName: bundle.Species.Name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ps).Error; err != nil {
			return fmt.Errorf("无法写入宝可梦物种关系: %w", err)
		}

		// 4. 属性及其交叉行(与主实体同一事务域)
		for i := range bundle.Types {
			if err := ptype.UpsertTypeInTx(tx, &bundle.Types[i]); err != nil {
				return err
			}
		}

		// 5. 进化谱系
		for rank, links := range bundle.Evolution {
			for _, link := range links {
				row := EvolutionLink{
					ChainID:     bundle.Species.ChainID,
					Name:        link.Name,
					Rank:        rank,
					ResourceURL: link.ResourceURL,
					IsBaby:      link.IsBaby,
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
					return fmt.Errorf("无法写入进化谱系条目 %s: %w", link.Name, err)
				}
			}
		}

		// 6. 形态及其交叉行
		for _, v := range bundle.Species.Varieties {
			varietyRow := Variety{
				Name:        v.Name,
				PokemonName: bundle.Pokemon.Name,
				IsDefault:   v.IsDefault,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&varietyRow).Error; err != nil {
				return fmt.Errorf("无法写入形态 %s: %w", v.Name, err)
			}
			pv := PokemonVariety{PokemonName: bundle.Pokemon.Name, VarietyName: v.Name}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pv).Error; err != nil {
				return fmt.Errorf("无法写入宝可梦形态关系: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	database.Changes.Publish(
		database.TopicPokemon,
		database.TopicSpecies,
		database.TopicEvolutionLinks,
		database.TopicVarieties,
		database.TopicTypes,
		database.TopicPokemonTypes,
	)
	return nil
}

// --- 单列更新(入库后唯一允许的修改) ---

// ErrNotCached 表示单列更新的目标行尚未入库。
// 调用方用它把"记录还没缓存"与存储自身的查询失败区分开。
var ErrNotCached = errors.New("本地缓存中不存在该记录")

// updateSingleColumn 无条件覆盖指定行的单个列，不触碰其他任何列。
func updateSingleColumn(ctx context.Context, model any, keyColumn, key, column string, value any, topic string) error {
	result := database.DB.WithContext(ctx).Model(model).
		Where(keyColumn+" = ?", key).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("无法更新 %s=%s 的 %s 列: %w", keyColumn, key, column, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s=%s: %w", keyColumn, key, ErrNotCached)
	}
	database.Changes.Publish(topic)
	return nil
}

// SetFavourite 切换某只宝可梦的收藏标记。
func SetFavourite(ctx context.Context, name string, favourite bool) error {
	return updateSingleColumn(ctx, &Pokemon{}, "name", name, "is_favourite", favourite, database.TopicPokemon)
}

// SetLocalSpritePath 写回图标素材的本地路径。
func SetLocalSpritePath(ctx context.Context, name, path string) error {
	return updateSingleColumn(ctx, &Pokemon{}, "name", name, "local_sprite_path", path, database.TopicPokemon)
}

// SetLocalArtworkPath 写回立绘素材的本地路径。
func SetLocalArtworkPath(ctx context.Context, name, path string) error {
	return updateSingleColumn(ctx, &Pokemon{}, "name", name, "local_artwork_path", path, database.TopicPokemon)
}

// SetLocalCryPath 写回叫声素材的本地路径。
func SetLocalCryPath(ctx context.Context, name, path string) error {
	return updateSingleColumn(ctx, &Pokemon{}, "name", name, "local_cry_path", path, database.TopicPokemon)
}

// SetLocalVarietyArtworkPath 写回某个形态立绘的本地路径。
func SetLocalVarietyArtworkPath(ctx context.Context, varietyName, path string) error {
	return updateSingleColumn(ctx, &Variety{}, "name", varietyName, "local_artwork_path", path, database.TopicVarieties)
}

// --- 读路径 ---

func loadPokemonRow(where string, arg any) (*Pokemon, error) {
	var row Pokemon
	err := database.DB.Where(where, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// loadDetail 围绕一条宝可梦主行装配联接结果。
// 物种是必选关联: 物种行缺失时整个结果视为缺失(返回nil)，
// 属性和形态是可选列表，缺失时保持为空。
func loadDetail(row *Pokemon) (*Detail, error) {
	if row == nil {
		return nil, nil
	}

	detail := Detail{Pokemon: *row, TypeNames: []string{}, Varieties: []Variety{}, Evolution: []EvolutionLink{}}

	var species Species
	err := database.DB.Where("name = ?", row.SpeciesName).First(&species).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 必选关联缺失: 不能以半套数据冒充完整结果
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	detail.Species = species

	if err := database.DB.Model(&ptype.PokemonType{}).
		Where("pokemon_name = ?", row.Name).
		Order("type_name asc").
		Pluck("type_name", &detail.TypeNames).Error; err != nil {
		return nil, err
	}

	if err := database.DB.Where("pokemon_name = ?", row.Name).
		Order("name asc").Find(&detail.Varieties).Error; err != nil {
		return nil, err
	}

	if species.ChainID != 0 {
		if err := database.DB.Where("chain_id = ?", species.ChainID).
			Order("rank asc, id asc").Find(&detail.Evolution).Error; err != nil {
			return nil, err
		}
	}

	return &detail, nil
}

// GetDetailByName 按名称查询联接结果。缺失时返回(nil, nil)。
func GetDetailByName(name string) (*Detail, error) {
	row, err := loadPokemonRow("name = ?", name)
	if err != nil {
		return nil, err
	}
	return loadDetail(row)
}

// GetDetailByID 按远程稳定id查询联接结果。缺失时返回(nil, nil)。
func GetDetailByID(id int) (*Detail, error) {
	row, err := loadPokemonRow("pokemon_id = ?", id)
	if err != nil {
		return nil, err
	}
	return loadDetail(row)
}

// GetDetailBySpeciesName 按物种名查询其默认形态的联接结果。
func GetDetailBySpeciesName(speciesName string) (*Detail, error) {
	row, err := loadPokemonRow("species_name = ?", speciesName)
	if err != nil {
		return nil, err
	}
	return loadDetail(row)
}

// ListByGeneration 返回某世代在本地已有主行的全部成员。
// 世代成员名单按物种名登记，联接经由宝可梦行的物种外键完成。
func ListByGeneration(generationName string) ([]Pokemon, error) {
	var rows []Pokemon
	err := database.DB.
		Joins("JOIN generation_pokemons gp ON gp.pokemon_name = pokemons.species_name AND gp.deleted_at IS NULL").
		Where("gp.generation_name = ?", generationName).
		Order("pokemons.pokemon_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("无法联接查询世代 %s 的成员: %w", generationName, err)
	}
	return rows, nil
}

// ListByType 返回某属性在本地已有主行的全部成员。
func ListByType(typeName string) ([]Pokemon, error) {
	var rows []Pokemon
	err := database.DB.
		Joins("JOIN pokemon_types pt ON pt.pokemon_name = pokemons.name AND pt.deleted_at IS NULL").
		Where("pt.type_name = ?", typeName).
		Order("pokemons.pokemon_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("无法联接查询属性 %s 的成员: %w", typeName, err)
	}
	return rows, nil
}

// LocalNames 返回本地已入库的全部宝可梦名与物种名，供成员对账去重。
func LocalNames() (map[string]bool, error) {
	var pokemonNames []string
	if err := database.DB.Model(&Pokemon{}).Pluck("name", &pokemonNames).Error; err != nil {
		return nil, err
	}
	var speciesNames []string
	if err := database.DB.Model(&Pokemon{}).Pluck("species_name", &speciesNames).Error; err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(pokemonNames)+len(speciesNames))
	for _, n := range pokemonNames {
		present[n] = true
	}
	for _, n := range speciesNames {
		present[n] = true
	}
	return present, nil
}

// --- 订阅式观察 ---

var detailTopics = []string{
	database.TopicPokemon,
	database.TopicSpecies,
	database.TopicEvolutionLinks,
	database.TopicVarieties,
	database.TopicPokemonTypes,
}

// ObserveDetailByName 持续观察单只宝可梦的联接结果。缺失时发射nil。
func ObserveDetailByName(ctx context.Context, name string) <-chan stream.Emission[*Detail] {
	return stream.Watch(ctx, database.Changes, detailTopics, func(ctx context.Context) (*Detail, error) {
		return GetDetailByName(name)
	})
}

// ObserveDetailByID 持续观察按远程id定位的联接结果。
func ObserveDetailByID(ctx context.Context, id int) <-chan stream.Emission[*Detail] {
	return stream.Watch(ctx, database.Changes, detailTopics, func(ctx context.Context) (*Detail, error) {
		return GetDetailByID(id)
	})
}

// ObserveDetailBySpeciesName 持续观察按物种名定位的联接结果。
func ObserveDetailBySpeciesName(ctx context.Context, speciesName string) <-chan stream.Emission[*Detail] {
	return stream.Watch(ctx, database.Changes, detailTopics, func(ctx context.Context) (*Detail, error) {
		return GetDetailBySpeciesName(speciesName)
	})
}

// ObserveByGeneration 持续观察某世代的成员联接列表。
func ObserveByGeneration(ctx context.Context, generationName string) <-chan stream.Emission[[]Pokemon] {
	topics := []string{database.TopicPokemon, database.TopicGenerationPokemons}
	return stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) ([]Pokemon, error) {
		return ListByGeneration(generationName)
	})
}

// ObserveByType 持续观察某属性的成员联接列表。
func ObserveByType(ctx context.Context, typeName string) <-chan stream.Emission[[]Pokemon] {
	topics := []string{database.TopicPokemon, database.TopicPokemonTypes}
	return stream.Watch(ctx, database.Changes, topics, func(ctx context.Context) ([]Pokemon, error) {
		return ListByType(typeName)
	})
}
