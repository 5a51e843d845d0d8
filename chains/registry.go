// Package chains 链 id 到链信息的映射
package chains

import (
	"math/big"
	"sort"

	"erc7677-proxy/models"
)

// Registry 按 id 查询链
type Registry interface {
	Lookup(id *big.Int) (models.Chain, bool)
	Names() []string
}

// StaticRegistry 只读的静态链表
type StaticRegistry struct {
	byID map[uint64]models.Chain
}

// NewStaticRegistry 由 list 构建，相同 id 时后者覆盖前者
func NewStaticRegistry(list []models.Chain) *StaticRegistry {
	byID := make(map[uint64]models.Chain, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}
	return &StaticRegistry{byID: byID}
}

// Default 返回包含常见链的 registry
func Default() *StaticRegistry {
	return NewStaticRegistry(Known)
}

func (r *StaticRegistry) Lookup(id *big.Int) (models.Chain, bool) {
	if id == nil || !id.IsUint64() {
		return models.Chain{}, false
	}
	c, ok := r.byID[id.Uint64()]
	return c, ok
}

// Names 按 id 排序返回链名
func (r *StaticRegistry) Names() []string {
	list := make([]models.Chain, 0, len(r.byID))
	for _, c := range r.byID {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	return names
}

// Known 内置链表
var Known = []models.Chain{
	{ID: 1, Name: "mainnet"},
	{ID: 10, Name: "optimism"},
	{ID: 56, Name: "bsc"},
	{ID: 97, Name: "bscTestnet", Testnet: true},
	{ID: 100, Name: "gnosis"},
	{ID: 130, Name: "unichain"},
	{ID: 137, Name: "polygon"},
	{ID: 146, Name: "sonic"},
	{ID: 324, Name: "zksync"},
	{ID: 480, Name: "worldchain"},
	{ID: 1301, Name: "unichainSepolia", Testnet: true},
	{ID: 1868, Name: "soneium"},
	{ID: 1946, Name: "soneiumMinato", Testnet: true},
	{ID: 4801, Name: "worldchainSepolia", Testnet: true},
	{ID: 5000, Name: "mantle"},
	{ID: 5003, Name: "mantleSepoliaTestnet", Testnet: true},
	{ID: 8453, Name: "base"},
	{ID: 10200, Name: "gnosisChiado", Testnet: true},
	{ID: 17000, Name: "holesky", Testnet: true},
	{ID: 34443, Name: "mode"},
	{ID: 42161, Name: "arbitrum"},
	{ID: 42170, Name: "arbitrumNova"},
	{ID: 42220, Name: "celo"},
	{ID: 43113, Name: "avalancheFuji", Testnet: true},
	{ID: 43114, Name: "avalanche"},
	{ID: 44787, Name: "celoAlfajores", Testnet: true},
	{ID: 57073, Name: "ink"},
	{ID: 59141, Name: "lineaSepolia", Testnet: true},
	{ID: 59144, Name: "linea"},
	{ID: 80002, Name: "polygonAmoy", Testnet: true},
	{ID: 81457, Name: "blast"},
	{ID: 84532, Name: "baseSepolia", Testnet: true},
	{ID: 300, Name: "zksyncSepoliaTestnet", Testnet: true},
	{ID: 421614, Name: "arbitrumSepolia", Testnet: true},
	{ID: 534351, Name: "scrollSepolia", Testnet: true},
	{ID: 534352, Name: "scroll"},
	{ID: 560048, Name: "hoodi", Testnet: true},
	{ID: 763373, Name: "inkSepolia", Testnet: true},
	{ID: 919, Name: "modeTestnet", Testnet: true},
	{ID: 7777777, Name: "zora"},
	{ID: 11155111, Name: "sepolia", Testnet: true},
	{ID: 11155420, Name: "optimismSepolia", Testnet: true},
	{ID: 168587773, Name: "blastSepolia", Testnet: true},
	{ID: 999999999, Name: "zoraSepolia", Testnet: true},
}
