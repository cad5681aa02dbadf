package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/omote-irgen/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "irgen-test",
		},
		QoS:         1,
		TopicPrefix: "omote",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// ─── Topics ────────────────────────────────────────────────────────────

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"command", NewTopics("omote").IRCommand("tv_living", "POWER"), "omote/ir/tv_living/POWER"},
		{"trailing slash", NewTopics("home/omote/").IRCommand("tv", "MUTE"), "home/omote/ir/tv/MUTE"},
		{"default prefix", NewTopics("").SystemStatus(), "omote/system/status"},
		{"wildcard", NewTopics("omote").DeviceCommands("tv"), "omote/ir/tv/+"},
		{"sanitised", NewTopics("omote").IRCommand("a/b", "VOL+#"), "omote/ir/a_b/VOL__"},
		{"empty segment", NewTopics("omote").IRCommand("tv", "  "), "omote/ir/tv/_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// ─── Options ───────────────────────────────────────────────────────────

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "irgen", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Fatalf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "irgen-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "irgen" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.CleanSession || !opts.AutoReconnect {
		t.Errorf("CleanSession=%v AutoReconnect=%v, want both true", opts.CleanSession, opts.AutoReconnect)
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Errorf("TLS configured without broker.tls")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].String(); got != "ssl://127.0.0.1:8883" {
		t.Errorf("broker = %q, want ssl://127.0.0.1:8883", got)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLSConfig = %+v, want MinVersion TLS1.2", opts.TLSConfig)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, NewTopics("omote"), "irgen-test")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatalf("WillEnabled=%v WillRetained=%v, want both true", opts.WillEnabled, opts.WillRetained)
	}
	if opts.WillTopic != "omote/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var st status
	if err := json.Unmarshal(opts.WillPayload, &st); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if st.Status != "offline" || st.Reason != "unexpected_disconnect" || st.ClientID != "irgen-test" {
		t.Errorf("will = %+v", st)
	}
}

func TestStatusPayloadOmitsEmptyReason(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal(statusPayload("online", "irgen", ""), &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["reason"]; ok {
		t.Errorf("online payload carries reason: %v", m)
	}
	if m["status"] != "online" {
		t.Errorf("status = %v", m["status"])
	}
}

// ─── Disconnected client ───────────────────────────────────────────────

func TestPublishValidation(t *testing.T) {
	c := newClient(testConfig())

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		want    error
	}{
		{"empty topic", "", 1, []byte("x"), ErrInvalidTopic},
		{"bad qos", "omote/ir/tv/POWER", 3, []byte("x"), ErrInvalidQoS},
		{"too large", "omote/ir/tv/POWER", 1, make([]byte, maxPayloadSize+1), ErrPublishFailed},
		{"not connected", "omote/ir/tv/POWER", 1, []byte("x"), ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, true)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublishCodeDisconnected(t *testing.T) {
	c := newClient(testConfig())
	err := c.PublishCode("tv", "POWER", CodeMessage{Protocol: "NEC", Hex: "0x00FF08F7", Bits: 32})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishCode() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := newClient(testConfig())
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
	if err := newClient(testConfig()).Close(); err != nil {
		t.Errorf("unconnected Close() = %v", err)
	}
}

func TestConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 1 // nothing listens here

	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestCodeMessageJSON(t *testing.T) {
	b, err := json.Marshal(CodeMessage{
		Name:     "Power",
		Protocol: "SIRC12",
		Constant: "IR_PROTOCOL_SONY12",
		Hex:      "0xA90",
		Bits:     12,
		Repeat:   2,
		Payload:  "0xA90:12:2",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":"Power","protocol":"SIRC12","constant":"IR_PROTOCOL_SONY12","hex":"0xA90","bits":12,"repeat":2,"payload":"0xA90:12:2"}`
	if string(b) != want {
		t.Errorf("json = %s\nwant %s", b, want)
	}
}
