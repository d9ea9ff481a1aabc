package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/config"
	"github.com/mediafold/mediafold/database"
	"github.com/mediafold/mediafold/inmemory"
	"github.com/mediafold/mediafold/keybackend"
	"github.com/mediafold/mediafold/thumbnail"
	"github.com/mediafold/mediafold/vault"
	"github.com/mediafold/mediafold/webdav"
)

// buildVault wires the backing stores, the registry, and the thumbnail
// pipeline into a vault. The returned cleanup closes the registry
// connection.
func buildVault(ctx context.Context, cfg *config.Config) (*vault.Vault, func(), error) {
	secret, err := keybackend.LoadSigningSecret(cfg.Capability.Secret)
	if err != nil {
		return nil, nil, fmt.Errorf("load signing secret: %w", err)
	}

	data, err := newStore("data", cfg.Stores.Data)
	if err != nil {
		return nil, nil, err
	}
	cache, err := newStore("cache", cfg.Stores.Cache)
	if err != nil {
		return nil, nil, err
	}

	registry, closeDB, err := database.Connect(ctx, database.Config{
		Type:  cfg.Database.Type,
		DSN:   cfg.Database.DSN,
		Table: cfg.Database.Table,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect registry: %w", err)
	}
	slog.Info("connected to registry", "type", cfg.Database.Type)

	v, err := vault.New(vault.Config{
		Data:          data,
		Cache:         cache,
		Registry:      registry,
		Thumbnails:    thumbnail.NewGenerator(cfg.Thumbnail.MaxSize),
		Signer:        mediafold.NewSigner(secret),
		PublicBaseURL: cfg.Server.PublicBaseURL,
		URLTTL:        cfg.Capability.TTL,
	})
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("create vault: %w", err)
	}

	return v, closeDB, nil
}

// newStore builds a backing store from its config. Without a base URL the
// store is kept in memory, which only makes sense for local development.
func newStore(name string, cfg config.StoreConfig) (mediafold.Store, error) {
	if cfg.BaseURL == "" {
		slog.Warn("no base url configured, using in-memory store", "store", name)
		return inmemory.New(), nil
	}

	client, err := webdav.New(webdav.Config{
		BaseURL:            cfg.BaseURL,
		Path:               cfg.Path,
		Username:           cfg.Username,
		Password:           cfg.Password,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ListDepth:          cfg.ListDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", name, err)
	}
	return client, nil
}
