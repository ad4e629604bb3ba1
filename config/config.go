package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	Database DatabaseConfig           `mapstructure:"database"`
	Redis    RedisConfig              `mapstructure:"redis"`
	JWT      JWTConfig                `mapstructure:"jwt"`
	Queue    QueueConfig              `mapstructure:"queue"`
	Log      LogConfig                `mapstructure:"log"`
	Billing  BillingConfig            `mapstructure:"billing"`
	Stat     StatConfig               `mapstructure:"stat"`
	CORS     CORSConfig               `mapstructure:"cors"`
	Payment  map[string]PaymentConfig `mapstructure:"payment"` // 键为支付方式名称
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	NodeToken string `mapstructure:"node_token"` // 节点上报流量使用的通信密钥
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type QueueConfig struct {
	OrderQueue   string `mapstructure:"order_queue"`
	TrafficQueue string `mapstructure:"traffic_queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`

	// 开通失败后重新入队的最大次数
	MaxAttempts int `mapstructure:"max_attempts"`

	// 开通中超过该分钟数的订单由定时任务重新投递
	RedispatchAfterMinutes int `mapstructure:"redispatch_after_minutes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// BillingConfig 计费相关的全局开关，每次请求取一次快照传入服务层
type BillingConfig struct {
	PlanChangeEnable          bool `mapstructure:"plan_change_enable"`
	SurplusEnable             bool `mapstructure:"surplus_enable"`
	CommissionFirstTimeEnable bool `mapstructure:"commission_first_time_enable"`
	ResetTrafficMethod        int  `mapstructure:"reset_traffic_method"`
	AllowNegativeBalance      bool `mapstructure:"allow_negative_balance"`
	InviteCommission          int  `mapstructure:"invite_commission"` // 邀请人未单独设置返佣比例时使用
}

type PaymentConfig struct {
	Driver string `mapstructure:"driver"`
	Key    string `mapstructure:"key"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type StatConfig struct {
	FlushIntervalMinutes int `mapstructure:"flush_interval_minutes"`
}

// DefaultBilling 与历史后台设置保持一致的默认值
func DefaultBilling() BillingConfig {
	return BillingConfig{
		PlanChangeEnable:          true,
		SurplusEnable:             true,
		CommissionFirstTimeEnable: true,
		ResetTrafficMethod:        0,
		InviteCommission:          10,
	}
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	defaults := DefaultBilling()
	v.SetDefault("billing.plan_change_enable", defaults.PlanChangeEnable)
	v.SetDefault("billing.surplus_enable", defaults.SurplusEnable)
	v.SetDefault("billing.commission_first_time_enable", defaults.CommissionFirstTimeEnable)
	v.SetDefault("billing.reset_traffic_method", defaults.ResetTrafficMethod)
	v.SetDefault("billing.invite_commission", defaults.InviteCommission)
	v.SetDefault("queue.order_queue", "order_handle")
	v.SetDefault("queue.traffic_queue", "traffic_fetch")
	v.SetDefault("queue.max_workers", 4)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.redispatch_after_minutes", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("stat.flush_interval_minutes", 60)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
