package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/weft/internal/canvas"
	"github.com/matsen/weft/internal/catalog"
	"github.com/matsen/weft/internal/config"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/storage"
)

// workspace is a loaded repository: config, catalog, and a canvas restored
// from the saved state and history session.
type workspace struct {
	root    string
	cfg     *config.Config
	catalog *catalog.Catalog
	canvas  *canvas.Canvas
}

// mustOpenWorkspace loads the repository containing the working directory,
// exits on error.
func mustOpenWorkspace() *workspace {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	cat, err := loadCatalog(root, cfg)
	if err != nil {
		exitWithError(ExitConfigError, "loading catalog: %v", err)
	}

	state, err := storage.ReadState(config.WorkflowPath(root))
	if err != nil {
		exitWithError(ExitDataError, "reading workflow: %v", err)
	}
	session, err := storage.ReadSession(config.HistoryPath(root), config.SessionPath(root))
	if err != nil {
		exitWithError(ExitDataError, "reading history: %v", err)
	}

	cv := newCanvas(cfg)
	if err := cv.Load(state); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	cv.History().Import(session)

	logger.Debug("workspace opened", "root", root, "nodes", len(state.Nodes), "edges", len(state.Edges), "history", len(session.Entries))
	return &workspace{root: root, cfg: cfg, catalog: cat, canvas: cv}
}

// newCanvas builds a canvas tuned by the repository config.
func newCanvas(cfg *config.Config) *canvas.Canvas {
	return canvas.New(
		canvas.WithLogger(logger),
		canvas.WithSnapRadius(cfg.SnapDistance),
		canvas.WithZoomLimits(cfg.ZoomLimits()),
		canvas.WithHistory(
			history.WithMaxSize(cfg.HistorySize),
			history.WithDedupe(cfg.DedupeWindow(), cfg.DedupeLookback),
		),
	)
}

// loadCatalog merges the builtin catalog with the global catalog and then
// the repository catalog; later catalogs override earlier ones by type.
func loadCatalog(root string, cfg *config.Config) (*catalog.Catalog, error) {
	cat := catalog.Builtin()

	if path := config.GetCatalog(); path != "" {
		global, err := catalog.Load(config.ExpandPath(path))
		if err != nil {
			return nil, err
		}
		cat = cat.Merge(global)
	}

	path := config.CatalogPath(root)
	if cfg.Catalog != "" {
		path = config.ExpandPath(cfg.Catalog)
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
	}
	if _, err := os.Stat(path); err == nil {
		local, err := catalog.Load(path)
		if err != nil {
			return nil, err
		}
		cat = cat.Merge(local)
	} else if cfg.Catalog != "" {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	return cat, nil
}

// save writes the workflow and history session, then refreshes the query
// index.
func (ws *workspace) save() error {
	state := ws.canvas.State()
	if err := storage.WriteState(config.WorkflowPath(ws.root), state); err != nil {
		return fmt.Errorf("writing workflow: %w", err)
	}
	session := ws.canvas.History().Export()
	if err := storage.WriteSession(config.HistoryPath(ws.root), config.SessionPath(ws.root), session); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if _, err := rebuildIndex(ws.root); err != nil {
		// The index is disposable; the source files are already written.
		logger.Warn("query index not refreshed", "error", err)
	}
	return nil
}

// mustSave saves the workspace, exits on error.
func (ws *workspace) mustSave() {
	if err := ws.save(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
}

// IndexStats is the result of an index rebuild.
type IndexStats struct {
	Nodes   int `json:"nodes"`
	Ports   int `json:"ports"`
	Edges   int `json:"edges"`
	History int `json:"history"`
}

// rebuildIndex regenerates the SQLite index from the source files.
func rebuildIndex(root string) (IndexStats, error) {
	state, err := storage.ReadState(config.WorkflowPath(root))
	if err != nil {
		return IndexStats{}, err
	}
	entries, err := storage.ReadAllHistory(config.HistoryPath(root))
	if err != nil {
		return IndexStats{}, err
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return IndexStats{}, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		return IndexStats{}, err
	}
	defer db.Close()

	stats, err := db.RebuildFromState(state)
	if err != nil {
		return IndexStats{}, err
	}
	n, err := db.RebuildHistory(entries)
	if err != nil {
		return IndexStats{}, err
	}
	return IndexStats{Nodes: stats.Nodes, Ports: stats.Ports, Edges: stats.Edges, History: n}, nil
}
