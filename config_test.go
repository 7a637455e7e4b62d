package authcore

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/mail"
)

func TestDefaultConfigNeedsSigningKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingSigningKey) {
		t.Fatalf("expected ErrMissingSigningKey, got %v", err)
	}

	cfg.Token.PrivateKey = []byte("secret")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Token.TTL != 10*time.Minute {
		t.Fatalf("expected 10m token TTL, got %v", cfg.Token.TTL)
	}
	if cfg.SecondFactor.TTL != 10*time.Minute {
		t.Fatalf("expected 10m code TTL, got %v", cfg.SecondFactor.TTL)
	}
	if cfg.Password.Memory != 15000 || cfg.Password.Time != 2 || cfg.Password.Parallelism != 1 {
		t.Fatalf("unexpected password cost %+v", cfg.Password)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ttl", func(c *Config) { c.Token.TTL = 0 }},
		{"unknown method", func(c *Config) { c.Token.SigningMethod = "rs256" }},
		{"ed25519 without public key", func(c *Config) { c.Token.SigningMethod = "ed25519" }},
		{"negative leeway", func(c *Config) { c.Token.Leeway = -time.Second }},
		{"large leeway", func(c *Config) { c.Token.Leeway = time.Hour }},
		{"key id outside verify keys", func(c *Config) {
			c.Token.KeyID = "k2"
			c.Token.VerifyKeys = map[string][]byte{"k1": []byte("secret")}
		}},
		{"zero memory", func(c *Config) { c.Password.Memory = 0 }},
		{"short salt", func(c *Config) { c.Password.SaltLength = 8 }},
		{"short key", func(c *Config) { c.Password.KeyLength = 8 }},
		{"zero code ttl", func(c *Config) { c.SecondFactor.TTL = 0 }},
		{"zero login attempts", func(c *Config) { c.RateLimit.MaxLoginAttempts = 0 }},
		{"zero login cooldown", func(c *Config) { c.RateLimit.LoginCooldownDuration = 0 }},
		{"zero code attempts", func(c *Config) { c.RateLimit.MaxCodeAttempts = 0 }},
		{"zero audit buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Token.PrivateKey = []byte("secret")
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBuildRefusesMissingKey(t *testing.T) {
	_, err := New().WithMailer(mail.NewOutbox()).Build()
	if !errors.Is(err, ErrMissingSigningKey) {
		t.Fatalf("expected ErrMissingSigningKey, got %v", err)
	}
}

func TestBuildRequiresMailer(t *testing.T) {
	if _, err := New().WithSigningKey([]byte("secret")).Build(); err == nil {
		t.Fatal("expected error without mail sender")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(engineTestConfig()).WithMailer(mail.NewOutbox())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildClonesConfig(t *testing.T) {
	cfg := engineTestConfig()
	key := []byte("mutable-secret")
	cfg.Token.PrivateKey = key

	te := newTestEngine(t, cfg)
	res := loginToken(t, te, "clone@example.com")

	key[0] = 'X'
	if _, err := te.VerifyToken(t.Context(), res.Token); err != nil {
		t.Fatalf("caller mutation changed engine key: %v", err)
	}
}

func TestBuildEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	cfg := engineTestConfig()
	cfg.Token.SigningMethod = "ed25519"
	cfg.Token.PrivateKey = priv
	cfg.Token.PublicKey = pub

	te := newTestEngine(t, cfg)
	res := loginToken(t, te, "ed@example.com")
	who, err := te.VerifyToken(t.Context(), res.Token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if who.String() != "ed@example.com" {
		t.Fatalf("unexpected subject %s", who)
	}
}

func TestVerifyKeysAcceptRetiredKey(t *testing.T) {
	oldCfg := engineTestConfig()
	oldCfg.Token.PrivateKey = []byte("retired-secret")
	oldCfg.Token.KeyID = "k1"
	retired := newTestEngine(t, oldCfg)
	res := loginToken(t, retired, "rotate@example.com")

	newCfg := engineTestConfig()
	newCfg.Token.PrivateKey = []byte("current-secret")
	newCfg.Token.KeyID = "k2"
	newCfg.Token.VerifyKeys = map[string][]byte{
		"k1": []byte("retired-secret"),
		"k2": []byte("current-secret"),
	}
	current := newTestEngine(t, newCfg)

	who, err := current.VerifyToken(t.Context(), res.Token)
	if err != nil {
		t.Fatalf("token signed by retired key rejected: %v", err)
	}
	if who.String() != "rotate@example.com" {
		t.Fatalf("unexpected subject %s", who)
	}

	fresh := loginToken(t, current, "fresh@example.com")
	if _, err := current.VerifyToken(t.Context(), fresh.Token); err != nil {
		t.Fatalf("token signed by current key rejected: %v", err)
	}

	delete(newCfg.Token.VerifyKeys, "k1")
	newCfg.Token.VerifyKeys["k2"][0] = 'X'
	pruned := newTestEngine(t, newCfg)
	if _, err := pruned.VerifyToken(t.Context(), res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken once k1 is dropped, got %v", err)
	}
	if _, err := current.VerifyToken(t.Context(), fresh.Token); err != nil {
		t.Fatalf("caller mutation changed engine verify keys: %v", err)
	}
}
