package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Default topics used when the configuration leaves them empty.
const (
	DefaultRequestTopic = "ride/requests"
	DefaultAckTopic     = "vehicle/+/ack"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	// Enabled turns on assignment notifications and the request source.
	Enabled    bool   `json:"enabled"`
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	AuthMethod string `json:"auth_method"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	// RequestTopic carries incoming ride requests.
	RequestTopic string `json:"request_topic"`
	// AckTopic carries assignment acknowledgments from vehicles.
	AckTopic string `json:"ack_topic"`
	// AckTimeoutMS makes NotifyAssignment wait for the vehicle ack. Zero
	// disables waiting.
	AckTimeoutMS int `json:"ack_timeout_ms"`
	// QoS per message kind: "assignment", "request" and "ack".
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	TLSConfig  *tls.Config     `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "ridedispatch"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = DefaultRequestTopic
	}
	if c.AckTopic == "" {
		c.AckTopic = DefaultAckTopic
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields when MQTT is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt: unknown auth_method %q", c.AuthMethod)
	}
	if c.AckTimeoutMS < 0 {
		return fmt.Errorf("mqtt: ack_timeout_ms must not be negative")
	}
	return nil
}

func (c Config) qos(kind string) byte {
	if q, ok := c.QoS[kind]; ok {
		return q
	}
	return 0
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s has no certificates", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
