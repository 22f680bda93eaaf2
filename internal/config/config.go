package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MongoConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"clubreg"`
}

type MembershipConfig struct {
	// Prefix and PadWidth define the membership id format, e.g. KSASC0007.
	Prefix      string `yaml:"prefix" env-default:"KSASC"`
	PadWidth    int    `yaml:"pad_width" env-default:"4"`
	MaxAttempts int    `yaml:"max_attempts" env-default:"3"`
	Mode        string `yaml:"mode" env-default:"open"`
	ClubName    string `yaml:"club_name" env-default:"King Star Arts & Sports Club"`
	FeeAmount   int64  `yaml:"fee_amount" env-default:"0"`
	FeeCurrency string `yaml:"fee_currency" env-default:"eur"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:""`
	AdminUsername  string        `yaml:"admin_username" env:"ADMIN_USERNAME" env-default:""`
	AdminPassword  string        `yaml:"admin_password" env:"ADMIN_PASSWORD" env-default:""`
	AdminTokenTTL  time.Duration `yaml:"admin_token_ttl" env-default:"24h"`
	MemberTokenTTL time.Duration `yaml:"member_token_ttl" env-default:"168h"`
}

type StripeConfig struct {
	APIKey        string `yaml:"api_key" env-default:""`
	WebhookSecret string `yaml:"webhook_secret" env-default:""`
	SuccessURL    string `yaml:"success_url" env-default:""`
	TestMode      bool   `yaml:"test_mode" env-default:"false"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	Token   string `yaml:"token" env-default:""`
	ChatID  int64  `yaml:"chat_id" env-default:"0"`
}

type LegacyConfig struct {
	// DSN of the old MySQL roster, e.g. user:pass@tcp(host:3306)/club
	DSN   string `yaml:"dsn" env-default:""`
	Table string `yaml:"table" env-default:"roster"`
}

type Config struct {
	Listen     Listen           `yaml:"listen"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Membership MembershipConfig `yaml:"membership"`
	Auth       AuthConfig       `yaml:"auth"`
	Stripe     StripeConfig     `yaml:"stripe"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Legacy     LegacyConfig     `yaml:"legacy"`
	Env        string           `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
