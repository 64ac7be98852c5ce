package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STORE_CONFIG_FILE"
	envPrefix         = "STORE"
)

// secretKeys are read from STORE_* variables when set, so they can stay
// out of the config file.
var secretKeys = []string{
	"sql_db",
	"session.secret",
	"admin.password_hash",
	"payment.secret_key",
	"mail.password",
}

type session struct {
	Secret string        `mapstructure:"secret"`
	Secure bool          `mapstructure:"secure"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type admin struct {
	PasswordHash string        `mapstructure:"password_hash"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type payment struct {
	SecretKey  string        `mapstructure:"secret_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int64         `mapstructure:"max_retries"`
	APIURL     string        `mapstructure:"api_url"`
}

type mail struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	From        string        `mapstructure:"from"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Insecure    bool          `mapstructure:"insecure"`
}

type consumers struct {
	FulfillmentGroup string `mapstructure:"fulfillment_group"`
	SalesGroup       string `mapstructure:"sales_group"`
}

type topics struct {
	OrdersPaid string `mapstructure:"orders_paid"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t brokerTLS) Enabled() bool {
	return t.CA != "" || t.Cert != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	SQLDB          string        `mapstructure:"sql_db"`
	SQLTimeout     time.Duration `mapstructure:"sql_timeout"`
	Session        session       `mapstructure:"session"`
	Admin          admin         `mapstructure:"admin"`
	Payment        payment       `mapstructure:"payment"`
	Mail           mail          `mapstructure:"mail"`
	Broker         broker        `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	if err := cfg.Validate(); err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML file at path and applies STORE_* overrides for
// secrets.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("sql_timeout", 3*time.Second)
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("admin.token_ttl", 12*time.Hour)
	v.SetDefault("payment.timeout", 8*time.Second)
	v.SetDefault("payment.max_retries", 2)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeout", 8*time.Second)
	v.SetDefault("mail.max_attempts", 3)
	v.SetDefault("broker.topics.orders_paid", "orders-paid")
	v.SetDefault("broker.consumers.fulfillment_group", "fulfillment-group")
	v.SetDefault("broker.consumers.sales_group", "product-sales-group")
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	var errs []error
	required := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	required("sql_db", c.SQLDB)
	required("session.secret", c.Session.Secret)
	required("admin.password_hash", c.Admin.PasswordHash)
	required("payment.secret_key", c.Payment.SecretKey)
	required("mail.host", c.Mail.Host)
	required("mail.from", c.Mail.From)
	required("broker.topics.orders_paid", c.Broker.Topics.OrdersPaid)
	required("broker.consumers.fulfillment_group", c.Broker.Consumers.FulfillmentGroup)
	required("broker.consumers.sales_group", c.Broker.Consumers.SalesGroup)

	if len(c.Broker.SeedBrokers) == 0 {
		errs = append(errs, errors.New("broker.seed_brokers is required"))
	}
	if len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls is required"))
	}
	if (c.Broker.TLS.Cert == "") != (c.Broker.TLS.Key == "") {
		errs = append(errs, errors.New("broker.tls cert and key go together"))
	}
	if len(c.Session.Secret) > 0 && len(c.Session.Secret) < 32 {
		errs = append(errs, errors.New("session.secret must be at least 32 bytes"))
	}
	errs = append(errs, c.validateBudgets()...)
	return errors.Join(errs...)
}

// validateBudgets keeps every outbound call a request makes, retries
// included, inside http_timeout.
func (c Config) validateBudgets() []error {
	var errs []error

	payment := c.Payment.Timeout * time.Duration(c.Payment.MaxRetries+1)
	if payment > c.HTTPTimeout {
		errs = append(errs, fmt.Errorf(
			"http_timeout %s is shorter than payment.timeout x (max_retries+1) = %s",
			c.HTTPTimeout, payment,
		))
	}

	mail := c.Mail.Timeout * time.Duration(max(c.Mail.MaxAttempts, 1))
	if mail > c.HTTPTimeout {
		errs = append(errs, fmt.Errorf(
			"http_timeout %s is shorter than mail.timeout x max_attempts = %s",
			c.HTTPTimeout, mail,
		))
	}
	return errs
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "******"
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HTTPTimeout=%q
	SQLDB=%q
	SQLTimeout=%q

	Session:
	Secret=%q
	Secure=%t
	TTL=%q

	Admin:
	PasswordHash=%q
	TokenTTL=%q

	Payment:
	SecretKey=%q
	Timeout=%q
	MaxRetries=%d
	APIURL=%q

	Mail:
	Host=%q
	Port=%d
	Username=%q
	Password=%q
	From=%q
	Timeout=%q
	MaxAttempts=%d
	Insecure=%t

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		OrdersPaid=%q
	Consumers:
		FulfillmentGroup=%q
		SalesGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.HTTPTimeout,
		mask(c.SQLDB),
		c.SQLTimeout,
		mask(c.Session.Secret),
		c.Session.Secure,
		c.Session.TTL,
		mask(c.Admin.PasswordHash),
		c.Admin.TokenTTL,
		mask(c.Payment.SecretKey),
		c.Payment.Timeout,
		c.Payment.MaxRetries,
		c.Payment.APIURL,
		c.Mail.Host,
		c.Mail.Port,
		c.Mail.Username,
		mask(c.Mail.Password),
		c.Mail.From,
		c.Mail.Timeout,
		c.Mail.MaxAttempts,
		c.Mail.Insecure,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.OrdersPaid,
		c.Broker.Consumers.FulfillmentGroup,
		c.Broker.Consumers.SalesGroup,
	)
}
