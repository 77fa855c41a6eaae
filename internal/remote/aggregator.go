package remote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// 本文件实现远程聚合器: 把一次逻辑上的"获取宝可梦/属性/世代"
// 翻译为最小的依赖REST调用序列，并压平为一个聚合记录。
// 任何一步失败都使整个聚合失败，绝不返回部分结果。

// PokemonRecord 是压平后的宝可梦主资源。
type PokemonRecord struct {
	ID          int
	Name        string
	Height      int
	Weight      int
	Stats       map[string]int
	SpriteURL   string
	ArtworkURL  string
	CryURL      string
	SpeciesName string
}

// VarietyRecord 是物种下的一个形态引用(如地区形态)。
type VarietyRecord struct {
	Name      string
	IsDefault bool
}

// SpeciesRecord 是压平后的物种资源。
type SpeciesRecord struct {
	Name        string
	IsBaby      bool
	IsLegendary bool
	IsMythical  bool
	Shape       string
	Genus       string
	EvolvesFrom string
	FlavorTexts []string
	ChainID     uint // 0 表示该物种没有进化链资源
	Varieties   []VarietyRecord
}

// TypeRecord 是压平后的属性资源。
type TypeRecord struct {
	Name             string
	DoubleDamageTo   []string
	DoubleDamageFrom []string
	HalfDamageTo     []string
	HalfDamageFrom   []string
	NoDamageTo       []string
	NoDamageFrom     []string
	PokemonNames     []string
}

// GenerationRecord 是压平后的世代资源。
type GenerationRecord struct {
	Index   int
	Name    string
	Members []string
}

// PokemonBundle 是一次宝可梦聚合抓取的完整产物:
// 主资源、其物种、引用到的每个属性、以及展开后的进化谱系。
type PokemonBundle struct {
	Pokemon   PokemonRecord
	Species   SpeciesRecord
	Types     []TypeRecord
	Evolution RankMap
}

// FetchPokemonByName 抓取并聚合一只宝可梦: 主资源 -> 物种 ->
// 每个不同的属性 -> (若物种引用了进化链)链资源。
func (c *Client) FetchPokemonByName(ctx context.Context, name string) (*PokemonBundle, error) {
	return c.fetchPokemon(ctx, "/pokemon/"+name, name, nil)
}

// FetchPokemonByID 按远程稳定id抓取并聚合一只宝可梦。
func (c *Client) FetchPokemonByID(ctx context.Context, id int) (*PokemonBundle, error) {
	key := strconv.Itoa(id)
	return c.fetchPokemon(ctx, "/pokemon/"+key, key, nil)
}

// FetchPokemonBySpeciesName 按物种名抓取其默认形态的聚合记录。
// 世代成员列表给出的是物种名，补全成员时走这条路径。
// 物种资源在解析默认形态时已经取到，聚合时直接复用，不再重复抓取。
func (c *Client) FetchPokemonBySpeciesName(ctx context.Context, speciesName string) (*PokemonBundle, error) {
	var sp speciesDTO
	if err := c.getJSON(ctx, "/pokemon-species/"+speciesName, "物种", speciesName, &sp); err != nil {
		return nil, err
	}

	pokemonName := ""
	for _, v := range sp.Varieties {
		if v.IsDefault {
			pokemonName = v.Pokemon.Name
			break
		}
	}
	if pokemonName == "" && len(sp.Varieties) > 0 {
		pokemonName = sp.Varieties[0].Pokemon.Name
	}
	if pokemonName == "" {
		return nil, malformedError("物种", speciesName, fmt.Errorf("物种没有任何形态"))
	}

	return c.fetchPokemon(ctx, "/pokemon/"+pokemonName, pokemonName, &sp)
}

// fetchPokemon 执行聚合抓取。prefetched非nil时复用调用方已取到的物种资源。
func (c *Client) fetchPokemon(ctx context.Context, path, key string, prefetched *speciesDTO) (*PokemonBundle, error) {
	// 1. 主资源
	var dto pokemonDTO
	if err := c.getJSON(ctx, path, "宝可梦", key, &dto); err != nil {
		return nil, err
	}

	// 2. 物种资源(必选关联)
	var sp speciesDTO
	if prefetched != nil {
		sp = *prefetched
	} else if err := c.getJSON(ctx, "/pokemon-species/"+dto.Species.Name, "物种", dto.Species.Name, &sp); err != nil {
		return nil, err
	}

	// 3. 每个不同的属性资源
	types := make([]TypeRecord, 0, len(dto.Types))
	seen := make(map[string]bool)
	for _, slot := range dto.Types {
		typeName := slot.Type.Name
		if seen[typeName] {
			continue
		}
		seen[typeName] = true
		tr, err := c.FetchTypeByName(ctx, typeName)
		if err != nil {
			return nil, err
		}
		types = append(types, *tr)
	}

	// 4. 进化链资源(物种可能没有)
	species := flattenSpecies(&sp)
	evolution := RankMap{}
	if species.ChainID != 0 {
		chainKey := strconv.FormatUint(uint64(species.ChainID), 10)
		var chain chainDTO
		if err := c.getJSON(ctx, "/evolution-chain/"+chainKey, "进化链", chainKey, &chain); err != nil {
			return nil, err
		}
		resolved, err := ResolveRank(&chain.Chain, c.maxDepth, chainKey)
		if err != nil {
			return nil, err
		}
		evolution = resolved
	}

	return &PokemonBundle{
		Pokemon:   flattenPokemon(&dto),
		Species:   species,
		Types:     types,
		Evolution: evolution,
	}, nil
}

// FetchTypes 抓取属性概览列表，只返回全量属性名集合。
func (c *Client) FetchTypes(ctx context.Context) ([]string, error) {
	var list resourceList
	if err := c.getJSON(ctx, "/type/?limit=1000", "属性列表", "全部", &list); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list.Results))
	for _, r := range list.Results {
		names = append(names, r.Name)
	}
	return names, nil
}

// FetchTypeByName 抓取并压平单个属性资源。
func (c *Client) FetchTypeByName(ctx context.Context, name string) (*TypeRecord, error) {
	var dto typeDTO
	if err := c.getJSON(ctx, "/type/"+name, "属性", name, &dto); err != nil {
		return nil, err
	}

	record := &TypeRecord{
		Name:             dto.Name,
		DoubleDamageTo:   resourceNames(dto.DamageRelations.DoubleDamageTo),
		DoubleDamageFrom: resourceNames(dto.DamageRelations.DoubleDamageFrom),
		HalfDamageTo:     resourceNames(dto.DamageRelations.HalfDamageTo),
		HalfDamageFrom:   resourceNames(dto.DamageRelations.HalfDamageFrom),
		NoDamageTo:       resourceNames(dto.DamageRelations.NoDamageTo),
		NoDamageFrom:     resourceNames(dto.DamageRelations.NoDamageFrom),
	}
	for _, p := range dto.Pokemon {
		record.PokemonNames = append(record.PokemonNames, p.Pokemon.Name)
	}
	return record, nil
}

// FetchGenerations 抓取世代概览列表，只返回全量世代名集合。
func (c *Client) FetchGenerations(ctx context.Context) ([]string, error) {
	var list resourceList
	if err := c.getJSON(ctx, "/generation/?limit=100", "世代列表", "全部", &list); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list.Results))
	for _, r := range list.Results {
		names = append(names, r.Name)
	}
	return names, nil
}

// FetchGenerationByName 抓取并压平单个世代资源。
func (c *Client) FetchGenerationByName(ctx context.Context, name string) (*GenerationRecord, error) {
	return c.fetchGeneration(ctx, "/generation/"+name, name)
}

// FetchGenerationByID 按远程稳定id抓取并压平单个世代资源。
func (c *Client) FetchGenerationByID(ctx context.Context, id int) (*GenerationRecord, error) {
	key := strconv.Itoa(id)
	return c.fetchGeneration(ctx, "/generation/"+key, key)
}

func (c *Client) fetchGeneration(ctx context.Context, path, key string) (*GenerationRecord, error) {
	var dto generationDTO
	if err := c.getJSON(ctx, path, "世代", key, &dto); err != nil {
		return nil, err
	}
	return &GenerationRecord{
		Index:   dto.ID,
		Name:    dto.Name,
		Members: resourceNames(dto.PokemonSpecies),
	}, nil
}

// --- 压平辅助函数 ---

func flattenPokemon(dto *pokemonDTO) PokemonRecord {
	stats := make(map[string]int, len(dto.Stats))
	for _, s := range dto.Stats {
		stats[s.Stat.Name] = s.BaseStat
	}
	return PokemonRecord{
		ID:          dto.ID,
		Name:        dto.Name,
		Height:      dto.Height,
		Weight:      dto.Weight,
		Stats:       stats,
		SpriteURL:   dto.Sprites.FrontDefault,
		ArtworkURL:  dto.Sprites.Other.OfficialArtwork.FrontDefault,
		CryURL:      dto.Cries.Latest,
		SpeciesName: dto.Species.Name,
	}
}

func flattenSpecies(dto *speciesDTO) SpeciesRecord {
	record := SpeciesRecord{
		Name:        dto.Name,
		IsBaby:      dto.IsBaby,
		IsLegendary: dto.IsLegendary,
		IsMythical:  dto.IsMythical,
		Shape:       dto.Shape.Name,
	}
	// 只保留英文的图鉴条目和分类文本，顺序与远程一致
	for _, entry := range dto.FlavorTextEntries {
		if entry.Language.Name == "en" {
			record.FlavorTexts = append(record.FlavorTexts, entry.FlavorText)
		}
	}
	for _, g := range dto.Genera {
		if g.Language.Name == "en" {
			record.Genus = g.Genus
			break
		}
	}
	if dto.EvolvesFromSpecies != nil {
		record.EvolvesFrom = dto.EvolvesFromSpecies.Name
	}
	if dto.EvolutionChain != nil {
		record.ChainID = idFromURL(dto.EvolutionChain.URL)
	}
	for _, v := range dto.Varieties {
		record.Varieties = append(record.Varieties, VarietyRecord{
			Name:      v.Pokemon.Name,
			IsDefault: v.IsDefault,
		})
	}
	return record
}

func resourceNames(resources []NamedResource) []string {
	names := make([]string, 0, len(resources))
	for _, r := range resources {
		names = append(names, r.Name)
	}
	return names
}

// idFromURL 从 ".../evolution-chain/67/" 这类资源定位符中提取末尾的整数id。
// 解析失败返回0，调用方将其视为"没有该资源"。
func idFromURL(url string) uint {
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0
	}
	id, err := strconv.ParseUint(trimmed[idx+1:], 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
