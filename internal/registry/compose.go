package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/amansearch/internal/config"
	"github.com/Aman-CERP/amansearch/internal/directory"
	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/index"
	"github.com/Aman-CERP/amansearch/internal/search"
)

// NewFromConfig builds a registry holding every index and searcher declared
// in cfg. Each index also gets a searcher of the same name.
func NewFromConfig(cfg *config.Config, appRoot string, eng engine.Engine, logger *slog.Logger) (*Registry, error) {
	root := cfg.IndexRoot(appRoot)

	provider, err := directoryProvider(cfg.Directory, root, cfg.TempRoot, appRoot)
	if err != nil {
		return nil, err
	}

	r := New(eng, WithLogger(logger), WithDirectoryProvider(provider))
	if err := Configure(r, cfg, appRoot); err != nil {
		return nil, err
	}
	return r, nil
}

// Configure registers cfg's indexes and searchers on r.
func Configure(r *Registry, cfg *config.Config, appRoot string) error {
	searchOpts := []search.Option{
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithDefaultIndexType(cfg.Search.DefaultIndexType),
	}

	for _, ic := range cfg.Indexes {
		ic := ic
		if ic.Directory != "" {
			if err := validDirectoryKind(ic.Directory); err != nil {
				return err
			}
		}
		if err := r.RegisterIndex(ic.Name, func(*Scope) ([]index.Option, error) {
			return indexOptions(cfg, ic, appRoot)
		}); err != nil {
			return err
		}
		if err := r.RegisterSearcher(ic.Name, IndexSearcher(ic.Name)); err != nil {
			return err
		}
	}

	for _, ms := range cfg.MultiSearchers {
		if err := r.RegisterMultiIndexSearcher(ms.Name, ms.Indexes, ms.Analyzer, searchOpts...); err != nil {
			return fmt.Errorf("multi searcher %s: %w", ms.Name, err)
		}
	}
	return nil
}

func indexOptions(cfg *config.Config, ic config.IndexConfig, appRoot string) ([]index.Option, error) {
	opts := []index.Option{
		index.WithMaxResults(cfg.Search.MaxResults),
		index.WithDefaultIndexType(cfg.Search.DefaultIndexType),
	}
	if ic.Analyzer != "" {
		opts = append(opts, index.WithAnalyzer(ic.Analyzer))
	}
	for _, f := range ic.Fields {
		opts = append(opts, index.WithField(f.Name, f.Type))
	}
	if len(ic.RequiredFields) > 0 {
		opts = append(opts, index.WithValidator(index.RequireFields(ic.RequiredFields...)))
	}
	if ic.Directory != "" && !strings.EqualFold(ic.Directory, cfg.Directory) {
		f, err := directoryFactory(ic.Directory, cfg.IndexRoot(appRoot), cfg.TempRoot, appRoot)
		if err != nil {
			return nil, err
		}
		opts = append(opts, index.WithDirectory(f))
	}
	return opts, nil
}

// directoryProvider checks kind once and then builds a new factory for
// every resolution scope.
func directoryProvider(kind, root, tempRoot, appRoot string) (DirectoryProvider, error) {
	if err := validDirectoryKind(kind); err != nil {
		return nil, err
	}
	return func() (directory.Factory, error) {
		return directoryFactory(kind, root, tempRoot, appRoot)
	}, nil
}

func validDirectoryKind(kind string) error {
	_, err := directoryFactory(kind, "", "", "")
	return err
}

func directoryFactory(kind, root, tempRoot, appRoot string) (directory.Factory, error) {
	switch strings.ToLower(kind) {
	case "", config.DirectoryFileSystem:
		return directory.NewFileSystem(root), nil
	case config.DirectoryMemory:
		return directory.NewMemory(appRoot), nil
	case config.DirectorySyncedTemp:
		return directory.NewSyncedTemp(root, tempRoot), nil
	default:
		return nil, amerrors.ConfigError(fmt.Sprintf("unknown directory kind %q", kind), nil)
	}
}
