package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
	if cfg.Static.Dir != "public" {
		t.Errorf("static dir = %q", cfg.Static.Dir)
	}
	if cfg.PubSub.Driver != "none" {
		t.Errorf("pubsub driver = %q", cfg.PubSub.Driver)
	}
	if cfg.WebSocket.PongWait != 60*time.Second || cfg.WebSocket.WriteWait != 10*time.Second {
		t.Errorf("websocket timeouts = %+v", cfg.WebSocket)
	}
	if cfg.WebSocket.PingInterval >= cfg.WebSocket.PongWait {
		t.Errorf("ping interval %v must be shorter than pong wait %v", cfg.WebSocket.PingInterval, cfg.WebSocket.PongWait)
	}
	if cfg.WebSocket.MaxMessageSize != 65536 || cfg.WebSocket.SendBufferSize != 256 {
		t.Errorf("websocket sizes = %+v", cfg.WebSocket)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte(`server:
  port: 4000
websocket:
  pong_wait: 90s
  write_wait: nonsense
static:
  dir: www
webrtc:
  ice_servers:
    - urls: ["turn:turn.example.com:3478"]
      username: user
      credential: secret
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("file port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.WebSocket.PongWait != 90*time.Second {
		t.Errorf("pong wait = %v", cfg.WebSocket.PongWait)
	}
	if cfg.WebSocket.WriteWait != 10*time.Second {
		t.Errorf("invalid write wait should fall back, got %v", cfg.WebSocket.WriteWait)
	}
	if cfg.Static.Dir != "www" {
		t.Errorf("static dir = %q", cfg.Static.Dir)
	}
	if len(cfg.WebRTC.ICEServers) != 1 || cfg.WebRTC.ICEServers[0].Username != "user" {
		t.Errorf("ice servers = %+v", cfg.WebRTC.ICEServers)
	}

	t.Setenv("PORT", "5000")
	t.Setenv("STATIC_DIR", "site")
	cfg, err = Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("env port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Static.Dir != "site" {
		t.Errorf("env static dir = %q", cfg.Static.Dir)
	}

	cfg, err = Load(Options{Port: 6000})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("flag port = %d, want 6000", cfg.Server.Port)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	if err := os.WriteFile(path, []byte("pubsub:\n  driver: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(Options{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PubSub.Driver != "redis" {
		t.Errorf("driver = %q", cfg.PubSub.Driver)
	}
	if cfg.PubSub.Redis.Address != "localhost:6379" {
		t.Errorf("redis address default = %q", cfg.PubSub.Redis.Address)
	}

	if _, err := Load(Options{ConfigFile: filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestGetICEServers(t *testing.T) {
	servers := WebRTCConfig{}.GetICEServers()
	if len(servers) != 1 || servers[0].URLs[0] != DefaultSTUNServer {
		t.Fatalf("fallback = %+v", servers)
	}

	cfg := WebRTCConfig{ICEServers: []ICEServerConfig{
		{URLs: []string{"turn:turn.example.com:3478"}, Username: "u", Credential: "p"},
		{},
	}}
	servers = cfg.GetICEServers()
	if len(servers) != 2 {
		t.Fatalf("servers = %+v", servers)
	}
	if servers[0].URLs[0] != DefaultSTUNServer {
		t.Errorf("STUN fallback should come first, got %+v", servers[0])
	}
	if servers[1].Username != "u" || servers[1].CredentialType != webrtc.ICECredentialTypePassword {
		t.Errorf("turn server = %+v", servers[1])
	}

	cfg = WebRTCConfig{ICEServers: []ICEServerConfig{{URLs: []string{"stun:stun.example.com:3478"}}}}
	servers = cfg.GetICEServers()
	if len(servers) != 1 || servers[0].URLs[0] != "stun:stun.example.com:3478" {
		t.Fatalf("configured stun = %+v", servers)
	}
}
