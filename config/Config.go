package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"erc7677-proxy/models"
	"erc7677-proxy/paymaster"
	"erc7677-proxy/validators"
)

// 默认值
const (
	DefaultPort            = "3000"
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultLogLevel        = "info"
	DefaultMongoDatabase   = "erc7677_proxy"
)

// 存储驱动
const (
	StoreMySQL = "mysql"
	StoreMongo = "mongo"
)

var validate = validator.New()

// Config 网关运行配置，启动时加载一次后显式传递给各组件
type Config struct {
	Port                 string        `validate:"required,numeric"`
	PaymasterServiceURL  string        `validate:"required"`
	PimlicoAPIKey        string
	EntryPointV06Enabled bool
	EntryPointV07Enabled bool
	EntryPointV08Enabled bool
	ChainIDWhitelist     []uint64
	SponsorshipPolicyIDs []string
	MaxHexDataBytes      int           `validate:"gt=0"`
	UpstreamTimeout      time.Duration `validate:"gt=0"`
	LogLevel             string        `validate:"oneof=debug info warn error"`
	MetricsEnabled       bool
	StoreDriver          string `validate:"omitempty,oneof=mysql mongo"`
	MySQLDSN             string `validate:"required_if=StoreDriver mysql"`
	MongoURI             string `validate:"required_if=StoreDriver mongo"`
	MongoDatabase        string `validate:"required"`
}

// EntryPointEnabled 指定版本的 EntryPoint 是否启用
func (c *Config) EntryPointEnabled(v models.EntryPointVersion) bool {
	switch v {
	case models.EntryPointV06:
		return c.EntryPointV06Enabled
	case models.EntryPointV07:
		return c.EntryPointV07Enabled
	case models.EntryPointV08:
		return c.EntryPointV08Enabled
	}
	return false
}

// ChainAllowed 白名单为空时允许所有链
func (c *Config) ChainAllowed(id uint64) bool {
	if len(c.ChainIDWhitelist) == 0 {
		return true
	}
	for _, allowed := range c.ChainIDWhitelist {
		if allowed == id {
			return true
		}
	}
	return false
}

// LoadEnv 加载 .env 文件中的环境变量，文件不存在时忽略
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("Error loading .env file: " + err.Error())
	}
}

// Load 从进程环境变量读取配置
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom 从 getenv 读取配置，空字符串视为未设置
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := &Config{
		Port:                orDefault(env("PORT"), DefaultPort),
		PaymasterServiceURL: env("PAYMASTER_SERVICE_URL"),
		PimlicoAPIKey:       env("PIMLICO_API_KEY"),
		LogLevel:            strings.ToLower(orDefault(env("LOG_LEVEL"), DefaultLogLevel)),
		StoreDriver:         strings.ToLower(env("STORE_DRIVER")),
		MySQLDSN:            env("MYSQL_DSN"),
		MongoURI:            env("MONGO_URI"),
		MongoDatabase:       orDefault(env("MONGO_DATABASE"), DefaultMongoDatabase),
	}
	if cfg.PaymasterServiceURL == "" && cfg.PimlicoAPIKey != "" {
		cfg.PaymasterServiceURL = fmt.Sprintf(paymaster.PimlicoURLTemplate, cfg.PimlicoAPIKey)
	}

	var err error
	if cfg.EntryPointV06Enabled, err = parseBool(env, "ENTRYPOINT_V06_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.EntryPointV07Enabled, err = parseBool(env, "ENTRYPOINT_V07_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.EntryPointV08Enabled, err = parseBool(env, "ENTRYPOINT_V08_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = parseBool(env, "METRICS_ENABLED", false); err != nil {
		return nil, err
	}

	for _, item := range splitList(env("CHAIN_ID_WHITELIST")) {
		id, err := strconv.ParseUint(item, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CHAIN_ID_WHITELIST entry %q: %w", item, err)
		}
		cfg.ChainIDWhitelist = append(cfg.ChainIDWhitelist, id)
	}
	cfg.SponsorshipPolicyIDs = splitList(env("PIMLICO_SPONSORSHIP_POLICY_IDS"))

	cfg.MaxHexDataBytes = validators.DefaultMaxHexDataBytes
	if v := env("MAX_HEX_DATA_BYTES"); v != "" {
		if cfg.MaxHexDataBytes, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid MAX_HEX_DATA_BYTES: %w", err)
		}
	}

	cfg.UpstreamTimeout = DefaultUpstreamTimeout
	if v := env("UPSTREAM_TIMEOUT"); v != "" {
		if cfg.UpstreamTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseBool(env func(string) string, key string, def bool) (bool, error) {
	v := env(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// splitList 解析逗号分隔的列表，忽略空项
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// GetMongoClient 创建并返回一个 MongoDB 客户端
func GetMongoClient(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(mongoURI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return client, nil
}
