// Package rmq models the message broker configuration the workflow hands
// to AMSlib and to the staging consumers. Only the connection descriptor is
// modeled here; the broker itself is an external collaborator.
package rmq

import (
	"fmt"
	"os"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/yaml.v3"

	"github.com/ams-hpc/amsflow/pkg/errors"
)

// Config carries everything required to connect to the RabbitMQ service.
// The field spelling matches the credentials files produced by the AMS
// deployment tooling.
type Config struct {
	Host       string `yaml:"service-host" json:"service-host"`
	Port       int    `yaml:"service-port" json:"service-port"`
	VHost      string `yaml:"rabbitmq-vhost" json:"rabbitmq-vhost"`
	User       string `yaml:"rabbitmq-user" json:"rabbitmq-user"`
	Password   string `yaml:"rabbitmq-password" json:"rabbitmq-password"`
	CertPath   string `yaml:"rabbitmq-cert" json:"rabbitmq-cert"`
	Exchange   string `yaml:"rabbitmq-exchange" json:"rabbitmq-exchange"`
	RoutingKey string `yaml:"rabbitmq-routing-key" json:"rabbitmq-routing-key"`
	Queue      string `yaml:"rabbitmq-outbound-queue" json:"rabbitmq-outbound-queue"`
}

// LoadConfig reads a broker credentials file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("rmq", "path", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError("rmq", "", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields every consumer needs.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.NewConfigError("rmq", "service-host", fmt.Errorf("host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.NewConfigError("rmq", "service-port", fmt.Errorf("invalid port %d", c.Port))
	}
	if c.User == "" {
		return errors.NewConfigError("rmq", "rabbitmq-user", fmt.Errorf("user is required"))
	}
	return nil
}

// ToDict returns the serializable connection descriptor. With forAMSLib
// set, the keys follow the spelling AMSlib expects inside the AMS-Objects
// artifact; otherwise the native credentials-file spelling is used.
func (c *Config) ToDict(forAMSLib bool) map[string]any {
	if forAMSLib {
		return map[string]any{
			"service-host":            c.Host,
			"service-port":            c.Port,
			"rabbitmq-vhost":          c.VHost,
			"rabbitmq-user":           c.User,
			"rabbitmq-password":       c.Password,
			"rabbitmq-cert":           c.CertPath,
			"rabbitmq-outbound-queue": c.Queue,
			"rabbitmq-exchange":       c.Exchange,
			"rabbitmq-routing-key":    c.RoutingKey,
		}
	}
	return map[string]any{
		"host":        c.Host,
		"port":        c.Port,
		"vhost":       c.VHost,
		"user":        c.User,
		"password":    c.Password,
		"cert":        c.CertPath,
		"queue":       c.Queue,
		"exchange":    c.Exchange,
		"routing-key": c.RoutingKey,
	}
}

// URI renders the AMQP connection URI, amqps when a TLS certificate is
// configured. No connection is opened here.
func (c *Config) URI() string {
	scheme := "amqp"
	if c.CertPath != "" {
		scheme = "amqps"
	}

	vhost := c.VHost
	if vhost == "" {
		vhost = "/"
	}

	uri := amqp.URI{
		Scheme:   scheme,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.User,
		Password: c.Password,
		Vhost:    vhost,
	}
	return uri.String()
}
