package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Pinata   PinataConfig   `mapstructure:"pinata"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 目标链配置（单链）
type ChainConfig struct {
	ChainId          int64  `mapstructure:"chain_id"`           // 目标链ID
	RpcUrl           string `mapstructure:"rpc_url"`            // RPC节点URL
	PrivateKey       string `mapstructure:"private_key"`        // 服务端签名私钥（可选，为空时仅支持只读和准备流程）
	ContractAddr     string `mapstructure:"contract_addr"`      // NFT合约地址
	MintGasLimit     uint64 `mapstructure:"mint_gas_limit"`     // mint固定gas上限
	TransferGasLimit uint64 `mapstructure:"transfer_gas_limit"` // transfer固定gas上限
}

// PinataConfig IPFS固定服务配置
type PinataConfig struct {
	ApiKey    string `mapstructure:"api_key"`    // Pinata API Key
	SecretKey string `mapstructure:"secret_key"` // Pinata Secret Key
	Gateway   string `mapstructure:"gateway"`    // IPFS网关
	PinUrl    string `mapstructure:"pin_url"`    // pinJSONToIPFS接口地址
}

type TaskConfig struct {
	SyncInterval int `mapstructure:"sync_interval"` // NFT状态对账间隔（秒），0表示关闭
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/hns")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "hackathon")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.chain_id", 80002)
	viper.SetDefault("chain.mint_gas_limit", 500000)
	viper.SetDefault("chain.transfer_gas_limit", 200000)
	viper.SetDefault("pinata.gateway", "https://gateway.pinata.cloud")
	viper.SetDefault("pinata.pin_url", "https://api.pinata.cloud/pinning/pinJSONToIPFS")
	viper.SetDefault("task.sync_interval", 0)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 启动时校验链和合约配置
func (c *Config) Validate() error {
	if c.Chain.ChainId <= 0 {
		return fmt.Errorf("chain.chain_id must be positive, got %d", c.Chain.ChainId)
	}
	if c.Chain.RpcUrl == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.ContractAddr == "" {
		return fmt.Errorf("chain.contract_addr is required")
	}
	if !common.IsHexAddress(c.Chain.ContractAddr) {
		return fmt.Errorf("chain.contract_addr %q is not a valid address", c.Chain.ContractAddr)
	}
	if c.Chain.MintGasLimit == 0 || c.Chain.TransferGasLimit == 0 {
		return fmt.Errorf("chain gas limits must be positive")
	}
	return nil
}
