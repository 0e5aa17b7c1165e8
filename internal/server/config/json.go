package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations go through
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	GRPCAddr                     string         `json:"grpc_addr"`
	Storage                      string         `json:"storage"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	TokenIssuer                  string         `json:"token_issuer"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	AuthCookieName               string         `json:"auth_cookie_name"`
	ConfirmationTokenLength      int            `json:"confirmation_token_length"`
	ConfirmationTokenValidity    timex.Duration `json:"confirmation_token_validity"`
	DefaultRole                  string         `json:"default_role"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	GeneratedPasswordLength      int            `json:"generated_password_length"`
	AMQPURL                      string         `json:"amqp_url"`
	AMQPExchange                 string         `json:"amqp_exchange"`
	AMQPRoutingKey               string         `json:"amqp_routing_key"`
	PublicBaseURL                string         `json:"public_base_url"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config. Keys missing from the
// file keep their current value.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.AuthCookieName, c.AuthCookieName)
	setString(&config.DefaultRole, c.DefaultRole)
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPExchange, c.AMQPExchange)
	setString(&config.AMQPRoutingKey, c.AMQPRoutingKey)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.LogLevel, c.LogLevel)

	setInt(&config.ConfirmationTokenLength, c.ConfirmationTokenLength)
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.GeneratedPasswordLength, c.GeneratedPasswordLength)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ConfirmationTokenValidity.Duration != 0 {
		config.ConfirmationTokenValidity = c.ConfirmationTokenValidity.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
