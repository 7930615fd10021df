package cli

import (
	"context"

	"github.com/hellonolen/triopia-mail/internal/catalog"
	"github.com/hellonolen/triopia-mail/internal/config"
	"github.com/hellonolen/triopia-mail/internal/logging"
	"github.com/hellonolen/triopia-mail/internal/nav"
	"github.com/hellonolen/triopia-mail/internal/prefs"
)

// app holds the wired-together client components shared by the ui and
// prefs commands.
type app struct {
	cfg       *config.Config
	kv        *prefs.SQLiteKV // nil when preference storage is unavailable
	prefStore *prefs.Store
	navStore  *nav.Store
}

// newApp builds the component graph from config: preference storage,
// source catalog, navigation model. Storage failures degrade to memory
// rather than aborting startup.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.Component("app")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	kv, err := prefs.OpenSQLite(cfg.PrefsPath(), cfg.Prefs.BusyTimeoutMs)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.PrefsPath()).
			Msg("preference database unavailable, continuing in memory")
		kv = nil
	}

	var prefStore *prefs.Store
	if kv != nil {
		prefStore = prefs.NewStore(kv)
	} else {
		prefStore = prefs.NewStore(nil)
	}

	navStore := nav.NewStore(prefStore, nav.Options{
		VirtualizeThreshold: cfg.Sidebar.VirtualizeThreshold,
		VirtualizeMax:       cfg.Sidebar.VirtualizeMax,
	})

	sources, err := loadSources(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.CatalogPath()).
			Msg("source catalog unreadable, starting with no sources")
		sources = nil
	}

	navStore.Initialize(defaultEntries(), sources, prefStore.Load(ctx))

	return &app{
		cfg:       cfg,
		kv:        kv,
		prefStore: prefStore,
		navStore:  navStore,
	}, nil
}

// Close releases the preference database.
func (a *app) Close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			logger := logging.Component("app")
			logger.Warn().Err(err).Msg("closing preference database")
		}
	}
}

func loadSources(cfg *config.Config) ([]nav.Source, error) {
	provider := catalog.NewFileProvider(cfg.CatalogPath())
	infos, err := provider.Sources()
	if err != nil {
		return nil, err
	}

	sources := make([]nav.Source, 0, len(infos))
	for _, info := range infos {
		sources = append(sources, nav.Source{
			ID:    info.ID,
			Label: info.Label,
			Kind:  nav.SourceKind(info.Kind),
		})
	}
	return sources, nil
}

// defaultEntries is the static sidebar link catalog.
func defaultEntries() []nav.Entry {
	return []nav.Entry{
		{Label: "All Mail", Path: "/all", Group: nav.GroupCore},
		{Label: "Compose", Path: "/compose", Group: nav.GroupCore},
		{Label: "Search", Path: "/search", Group: nav.GroupCore},
		{Label: "Rules", Path: "/rules", Group: nav.GroupTools},
		{Label: "Contacts", Path: "/contacts", Group: nav.GroupTools},
		{Label: "Account", Path: "/account", Group: nav.GroupSettings},
		{Label: "Appearance", Path: "/appearance", Group: nav.GroupSettings},
	}
}
