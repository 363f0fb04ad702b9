package config

import (
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/viper"
	pkgconfig "github.com/weiawesome/signal-relay/pkg/config"
	"github.com/weiawesome/signal-relay/pkg/pubsub"
)

// DefaultSTUNServer is served when no STUN server is configured.
const DefaultSTUNServer = "stun:stun.l.google.com:19302"

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Static    StaticConfig
	WebRTC    WebRTCConfig
	PubSub    pubsub.Config
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// WebSocketConfig durations are filled by parseDuration, not by Unmarshal, so
// an invalid value falls back to its default.
type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"-"`
	PongWait       time.Duration `mapstructure:"-"`
	WriteWait      time.Duration `mapstructure:"-"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBufferSize int           `mapstructure:"send_buffer_size"`
}

type StaticConfig struct {
	Dir string
}

type WebRTCConfig struct {
	ICEServers []ICEServerConfig `mapstructure:"ice_servers"`
}

type ICEServerConfig struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Options carries overrides from the command line. Zero values leave the
// file/env configuration alone.
type Options struct {
	ConfigDir  string
	ConfigFile string
	Port       int
}

// Load reads configuration from config/config.yaml (or opts.ConfigFile),
// the environment and opts, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	var (
		v   *viper.Viper
		err error
	)
	if opts.ConfigFile != "" {
		v, err = pkgconfig.LoadFile(opts.ConfigFile)
	} else {
		v, err = pkgconfig.Load(opts.ConfigDir, "config")
	}
	if err != nil {
		return nil, err
	}

	setDefaults(v)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("static.dir", "STATIC_DIR")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")

	if opts.Port > 0 {
		v.Set("server.port", opts.Port)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 54*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.PubSub.Redis.ReadTimeout = parseDuration(v, "pubsub.redis.read_timeout", 3*time.Second)
	cfg.PubSub.Redis.WriteTimeout = parseDuration(v, "pubsub.redis.write_timeout", 3*time.Second)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := pubsub.DefaultConfig()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("websocket.ping_interval", "54s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("websocket.send_buffer_size", 256)
	v.SetDefault("static.dir", "public")
	v.SetDefault("pubsub.driver", def.Driver)
	v.SetDefault("pubsub.redis.address", def.Redis.Address)
	v.SetDefault("pubsub.redis.password", "")
	v.SetDefault("pubsub.redis.db", 0)
	v.SetDefault("pubsub.redis.pool_size", def.Redis.PoolSize)
	v.SetDefault("pubsub.redis.read_timeout", def.Redis.ReadTimeout.String())
	v.SetDefault("pubsub.redis.write_timeout", def.Redis.WriteTimeout.String())
	v.SetDefault("pubsub.kafka.brokers", def.Kafka.Brokers)
	v.SetDefault("pubsub.kafka.partitions", def.Kafka.Partitions)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// GetICEServers converts the configured servers to pion's representation and
// prepends a STUN fallback when none of them is a STUN server.
func (c WebRTCConfig) GetICEServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(c.ICEServers)+1)
	hasSTUN := false
	for _, s := range c.ICEServers {
		if len(s.URLs) == 0 {
			continue
		}
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" || s.Credential != "" {
			server.Username = s.Username
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		for _, url := range s.URLs {
			if len(url) >= 5 && url[:5] == "stun:" {
				hasSTUN = true
			}
		}
		servers = append(servers, server)
	}
	if !hasSTUN {
		servers = append([]webrtc.ICEServer{{URLs: []string{DefaultSTUNServer}}}, servers...)
	}
	return servers
}
