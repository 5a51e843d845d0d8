package models

// Chain 链描述信息，由链注册表提供
type Chain struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Testnet bool   `json:"testnet"`
}
