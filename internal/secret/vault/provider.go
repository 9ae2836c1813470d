// Package vault reads provider keys from HashiCorp Vault.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"

	"github.com/blueberrycongee/copydesk/internal/secret"
)

// Provider implements secret.Provider for Vault KV (v1 and v2).
type Provider struct {
	client *vault.Client
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Config holds Vault connection and login settings.
type Config struct {
	Address    string
	AuthMethod string // "token", "approle" or "cert"
	Token      string
	RoleID     string
	SecretID   string
	CACert     string
	ClientCert string
	ClientKey  string
}

// New logs in to Vault and starts the token renewer when the token is
// renewable.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	vConfig := vault.DefaultConfig()
	vConfig.Address = cfg.Address

	if cfg.ClientCert != "" || cfg.ClientKey != "" || cfg.CACert != "" {
		if err := vConfig.ConfigureTLS(&vault.TLSConfig{
			ClientCert: cfg.ClientCert,
			ClientKey:  cfg.ClientKey,
			CACert:     cfg.CACert,
		}); err != nil {
			return nil, fmt.Errorf("configure tls: %w", err)
		}
	}

	client, err := vault.NewClient(vConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	p := &Provider{client: client, logger: logger, stopCh: make(chan struct{})}

	if cfg.AuthMethod == "token" || (cfg.AuthMethod == "" && cfg.Token != "") {
		if cfg.Token == "" {
			return nil, errors.New("vault token auth requires a token")
		}
		client.SetToken(cfg.Token)
		return p, nil
	}

	var secret *vault.Secret
	switch cfg.AuthMethod {
	case "cert":
		secret, err = client.Logical().Write("auth/cert/login", nil)
	case "approle", "":
		if cfg.RoleID == "" {
			return nil, fmt.Errorf("unknown or missing auth method: %q", cfg.AuthMethod)
		}
		secret, err = client.Logical().Write("auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
	default:
		return nil, fmt.Errorf("unknown auth method: %q", cfg.AuthMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("vault login (%s): %w", cfg.AuthMethod, err)
	}
	if secret == nil || secret.Auth == nil {
		return nil, errors.New("vault login returned no auth info")
	}

	client.SetToken(secret.Auth.ClientToken)

	if secret.Auth.Renewable {
		p.wg.Add(1)
		go p.renew(secret.Auth)
	}
	return p, nil
}

// Get reads "path/to/secret#key". The key defaults to "value".
func (p *Provider) Get(ctx context.Context, path string) (string, error) {
	secretPath, key := path, "value"
	if idx := strings.LastIndex(path, "#"); idx != -1 {
		secretPath, key = path[:idx], path[idx+1:]
	}

	secret, err := p.client.Logical().ReadWithContext(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("read vault secret %q: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault path %q: %w", secretPath, secret.ErrNotFound)
	}

	data := secret.Data
	if v, ok := data["data"]; ok {
		if nested, ok := v.(map[string]interface{}); ok {
			data = nested
		}
	}

	val, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q in vault path %q: %w", key, secretPath, secret.ErrNotFound)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("key %q in secret %q is not a string", key, secretPath)
	}
	return s, nil
}

// Close stops the token renewer.
func (p *Provider) Close() error {
	close(p.stopCh)
	p.wg.Wait()
	return nil
}

func (p *Provider) renew(auth *vault.SecretAuth) {
	defer p.wg.Done()

	watcher, err := p.client.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: &vault.Secret{Auth: auth},
	})
	if err != nil {
		p.logger.Warn("vault lifetime watcher unavailable", "error", err)
		return
	}

	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case err := <-watcher.DoneCh():
			if err != nil {
				p.logger.Warn("vault token renewal stopped", "error", err)
			}
			return
		case <-watcher.RenewCh():
			p.logger.Debug("vault token renewed")
		}
	}
}
