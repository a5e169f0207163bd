package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/backoffice/internal/config"
	"github.com/samvad-hq/backoffice/internal/logger"
	"github.com/samvad-hq/backoffice/internal/storage"
	"github.com/samvad-hq/backoffice/pkg/backoffice"
	"github.com/samvad-hq/backoffice/pkg/httpclient"
	"github.com/samvad-hq/backoffice/pkg/publishers"
)

// Runtime owns the long-lived pieces shared by the binaries: the token store,
// the change-event fanout, the HTTP client core and the resource services.
type Runtime struct {
	cfg     *config.Config
	log     logger.Logger
	store   storage.Store
	fanout  *publishers.Fanout
	client  *httpclient.Client
	Service *backoffice.Service
}

// NewRuntime builds a runtime. clientSide selects the execution context: a
// client-side runtime opens the token store and sends the stored bearer token.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger, clientSide bool) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		store storage.Store
		exec  httpclient.ExecutionContext = httpclient.ServerContext{}
	)
	if clientSide {
		exec = httpclient.ClientContext{}
		store, err = storage.NewStore(cfg.TokenStoreType, cfg.TokenStorePath, storage.Options{})
		if err != nil {
			fanout.Close()
			return nil, fmt.Errorf("init token store: %w", err)
		}
		log.InfoObj("token store initialized", "storage_config", map[string]any{
			"type":              cfg.TokenStoreType,
			"path":              cfg.TokenStorePath,
			"token_ttl_seconds": int(cfg.TokenTTL.Seconds()),
		})
	}

	clientCfg := httpclient.Config{
		Env:                cfg.Lookup,
		FallbackBaseURL:    cfg.DefaultBaseURL,
		Origin:             cfg.AppOrigin,
		SameOriginInClient: cfg.SameOriginInClient,
		Context:            exec,
		Timeout:            cfg.HTTPTimeout,
		Logger:             log,
	}
	if store != nil {
		clientCfg.Tokens = store
	}
	client := httpclient.New(clientCfg)

	return &Runtime{
		cfg:     cfg,
		log:     log,
		store:   store,
		fanout:  fanout,
		client:  client,
		Service: backoffice.New(client, backoffice.WithEvents(fanout), backoffice.WithLogger(log)),
	}, nil
}

// buildFanout loads the optional publishers file. Without one, events are dropped.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; change events disabled", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Client exposes the HTTP client core.
func (r *Runtime) Client() *httpclient.Client {
	return r.client
}

// Login authenticates and persists the token for later client-side calls.
// Any stored session is dropped first so /login never carries a stale bearer.
func (r *Runtime) Login(ctx context.Context, email, password string) error {
	if r.store == nil {
		return fmt.Errorf("login requires a client-side runtime")
	}
	if err := r.Logout(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	token, err := r.Service.Login(ctx, email, password, nil)
	if err != nil {
		return err
	}
	if err := r.store.Put(httpclient.TokenKey, token, r.cfg.TokenTTL); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	r.log.InfoObj("session stored", "session_meta", map[string]any{
		"ttl_seconds": int(r.cfg.TokenTTL.Seconds()),
	})
	return nil
}

// Logout forgets the stored token, including the legacy key.
func (r *Runtime) Logout() error {
	if r.store == nil {
		return nil
	}
	return errors.Join(
		r.store.Delete(httpclient.TokenKey),
		r.store.Delete(httpclient.LegacyTokenKey),
	)
}

// Close releases the token store and publisher connections, logging failures.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
