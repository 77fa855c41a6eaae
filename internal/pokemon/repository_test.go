package pokemon

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SlpAus/pokedex-cache-backend/internal/generation"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/metadata"
	"github.com/SlpAus/pokedex-cache-backend/internal/ptype"
	"github.com/SlpAus/pokedex-cache-backend/internal/remote"
	"github.com/SlpAus/pokedex-cache-backend/pkg/jsonlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 把全局DB替换为测试私有的SQLite库并迁移全部相关表。
func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&Pokemon{}, &Species{}, &EvolutionLink{}, &Variety{},
		&PokemonSpecies{}, &PokemonVariety{},
		&ptype.Type{}, &ptype.PokemonType{}, &ptype.TypeOverview{},
		&generation.Generation{}, &generation.GenerationPokemon{}, &generation.GenerationOverview{},
		&metadata.Metadata{},
	))
	database.DB = db
}

// bulbasaurBundle 构造一份完整的聚合产物样本。
func bulbasaurBundle() *remote.PokemonBundle {
	return &remote.PokemonBundle{
		Pokemon: remote.PokemonRecord{
			ID:          1,
			Name:        "bulbasaur",
			Height:      7,
			Weight:      69,
			Stats:       map[string]int{"hp": 45, "attack": 49},
			SpriteURL:   "https://img.example/bulbasaur.png",
			ArtworkURL:  "https://img.example/bulbasaur-art.png",
			CryURL:      "https://cry.example/bulbasaur.ogg",
			SpeciesName: "bulbasaur",
		},
		Species: remote.SpeciesRecord{
			Name:        "bulbasaur",
			Shape:       "quadruped",
			Genus:       "Seed Pokemon",
			FlavorTexts: []string{"A strange seed was planted on its back."},
			ChainID:     1,
			Varieties: []remote.VarietyRecord{
				{Name: "bulbasaur", IsDefault: true},
			},
		},
		Types: []remote.TypeRecord{
			{Name: "grass", PokemonNames: []string{"bulbasaur"}},
			{Name: "poison", PokemonNames: []string{"bulbasaur"}},
		},
		Evolution: remote.RankMap{
			0: {{Name: "bulbasaur", IsBaby: false}},
			1: {{Name: "ivysaur"}},
			2: {{Name: "venusaur"}},
		},
	}
}

func TestSaveBundlePersistsFullGraph(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, SaveBundle(context.Background(), bulbasaurBundle()))

	detail, err := GetDetailByName("bulbasaur")
	require.NoError(t, err)
	require.NotNil(t, detail)

	assert.Equal(t, 1, detail.Pokemon.PokemonID)
	assert.Equal(t, "bulbasaur", detail.Species.Name)
	assert.Equal(t, "Seed Pokemon", detail.Species.Genus)
	assert.Equal(t, []string{"A strange seed was planted on its back."}, jsonlist.Unmarshal(detail.Species.FlavorTexts))

	// 属性名按字典序
	assert.Equal(t, []string{"grass", "poison"}, detail.TypeNames)

	require.Len(t, detail.Varieties, 1)
	assert.True(t, detail.Varieties[0].IsDefault)

	// 进化谱系按阶段排序
	require.Len(t, detail.Evolution, 3)
	assert.Equal(t, "bulbasaur", detail.Evolution[0].Name)
	assert.Equal(t, 0, detail.Evolution[0].Rank)
	assert.Equal(t, "ivysaur", detail.Evolution[1].Name)
	assert.Equal(t, "venusaur", detail.Evolution[2].Name)
}

func TestSaveBundleIsIdempotent(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))
	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))

	for model, want := range map[any]int64{
		&Pokemon{}:           1,
		&Species{}:           1,
		&EvolutionLink{}:     3,
		&Variety{}:           1,
		&PokemonSpecies{}:    1,
		&ptype.Type{}:        2,
		&ptype.PokemonType{}: 2,
	} {
		var count int64
		require.NoError(t, database.DB.Model(model).Count(&count).Error)
		assert.Equal(t, want, count)
	}
}

func TestSaveBundleDiscardsRecordWithoutSpecies(t *testing.T) {
	setupTestDB(t)

	bundle := bulbasaurBundle()
	bundle.Pokemon.SpeciesName = ""
	require.NoError(t, SaveBundle(context.Background(), bundle), "缺失物种关联应丢弃而非报错")

	var count int64
	require.NoError(t, database.DB.Model(&Pokemon{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetDetailByIDAndSpeciesName(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, SaveBundle(context.Background(), bulbasaurBundle()))

	detail, err := GetDetailByID(1)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "bulbasaur", detail.Pokemon.Name)

	detail, err = GetDetailBySpeciesName("bulbasaur")
	require.NoError(t, err)
	require.NotNil(t, detail)

	absent, err := GetDetailByID(151)
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestDetailRequiresSpeciesRow(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, SaveBundle(context.Background(), bulbasaurBundle()))

	// 人为删除物种行: 必选关联缺失时整个联接结果视为缺失
	require.NoError(t, database.DB.Unscoped().Where("name = ?", "bulbasaur").Delete(&Species{}).Error)

	detail, err := GetDetailByName("bulbasaur")
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestSetFavouriteTouchesSingleColumn(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))

	require.NoError(t, SetFavourite(ctx, "bulbasaur", true))
	require.NoError(t, SetLocalArtworkPath(ctx, "bulbasaur", "/data/art/bulbasaur.png"))

	detail, err := GetDetailByName("bulbasaur")
	require.NoError(t, err)
	assert.True(t, detail.Pokemon.IsFavourite)
	assert.Equal(t, "/data/art/bulbasaur.png", detail.Pokemon.LocalArtworkPath)
	// 其余列保持聚合抓取时的原值
	assert.Equal(t, "https://img.example/bulbasaur-art.png", detail.Pokemon.ArtworkURL)
	assert.Equal(t, 7, detail.Pokemon.Height)
	assert.Empty(t, detail.Pokemon.LocalSpritePath)

	require.NoError(t, SetFavourite(ctx, "bulbasaur", false))
	detail, err = GetDetailByName("bulbasaur")
	require.NoError(t, err)
	assert.False(t, detail.Pokemon.IsFavourite)
	assert.Equal(t, "/data/art/bulbasaur.png", detail.Pokemon.LocalArtworkPath, "取消收藏不应触碰素材路径")
}

func TestSetVarietyArtworkPath(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))

	require.NoError(t, SetLocalVarietyArtworkPath(ctx, "bulbasaur", "/data/art/variety.png"))

	detail, err := GetDetailByName("bulbasaur")
	require.NoError(t, err)
	require.Len(t, detail.Varieties, 1)
	assert.Equal(t, "/data/art/variety.png", detail.Varieties[0].LocalArtworkPath)
}

func TestSingleColumnUpdateMissingRowFails(t *testing.T) {
	setupTestDB(t)

	err := SetFavourite(context.Background(), "missingno", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestListByGenerationJoinsViaSpeciesName(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, generation.SaveGeneration(ctx, &remote.GenerationRecord{
		Index: 1, Name: "generation-i", Members: []string{"bulbasaur", "charmander"},
	}))
	require.NoError(t, SaveBundle(ctx, bulbasaurBundle()))

	rows, err := ListByGeneration("generation-i")
	require.NoError(t, err)
	require.Len(t, rows, 1, "只有已入库的成员参与联接")
	assert.Equal(t, "bulbasaur", rows[0].Name)
}

func TestListByTypeJoinsViaPokemonName(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, SaveBundle(context.Background(), bulbasaurBundle()))

	rows, err := ListByType("grass")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bulbasaur", rows[0].Name)

	rows, err = ListByType("fire")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLocalNamesCoversPokemonAndSpecies(t *testing.T) {
	setupTestDB(t)

	bundle := bulbasaurBundle()
	bundle.Pokemon.Name = "bulbasaur-mega"
	require.NoError(t, SaveBundle(context.Background(), bundle))

	present, err := LocalNames()
	require.NoError(t, err)
	assert.True(t, present["bulbasaur-mega"])
	assert.True(t, present["bulbasaur"], "物种名也应计入，世代名单按物种名对账")
}
