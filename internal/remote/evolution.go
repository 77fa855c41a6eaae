package remote

import "fmt"

// ChainLink 是展开后进化谱系中的一个物种条目。
type ChainLink struct {
	Name        string
	ResourceURL string
	IsBaby      bool
}

// RankMap 是压平后的进化谱系: 进化阶段(从0开始) -> 该阶段的物种列表。
// 阶段0是链的根，每经过一条进化边阶段加1；同一阶段的兄弟分支
// 按遍历顺序合并进同一个列表。一个物种名在一条链中只出现一次。
type RankMap map[int][]ChainLink

// ResolveRank 递归展开一棵进化链树为RankMap。
// root为nil(物种没有进化链资源)时返回空映射。
// 远程协议声称链总是一棵有限的树，但这里不信任该约定:
// 展开深度超过maxDepth时视为畸形载荷并返回领域错误，
// 防止恶意或损坏的链数据造成无界递归。
func ResolveRank(root *ChainNode, maxDepth int, chainKey string) (RankMap, error) {
	ranks := make(RankMap)
	if root == nil {
		return ranks, nil
	}
	if err := walkChain(root, 0, maxDepth, chainKey, ranks); err != nil {
		return nil, err
	}
	return ranks, nil
}

func walkChain(node *ChainNode, rank, maxDepth int, chainKey string, ranks RankMap) error {
	if rank > maxDepth {
		return malformedError("进化链", chainKey,
			fmt.Errorf("展开深度超过上限 %d，链数据可能不是一棵树", maxDepth))
	}

	ranks[rank] = append(ranks[rank], ChainLink{
		Name:        node.Species.Name,
		ResourceURL: node.Species.URL,
		IsBaby:      node.IsBaby,
	})

	for i := range node.EvolvesTo {
		if err := walkChain(&node.EvolvesTo[i], rank+1, maxDepth, chainKey, ranks); err != nil {
			return err
		}
	}
	return nil
}
