// Package store implements the filesystem-backed AMS data store: trained
// models, candidate data and staging scratch space under one shared root,
// tracked by a JSON index.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/ams-hpc/amsflow/pkg/errors"
	"github.com/ams-hpc/amsflow/pkg/logger"
)

// Entry kinds tracked by the store index.
const (
	EntryModels     = "models"
	EntryCandidates = "candidates"
	EntryData       = "data"
)

// VersionLatest selects the newest registered record in Search.
const VersionLatest = "latest"

const indexFilename = "store_index.json"

// FileStore is the AMS data store rooted at a directory on the shared
// filesystem. Jobs borrow it during PrecedeDeploy; it is never owned by a
// job.
type FileStore struct {
	root   string
	logger *logger.Logger
	index  *storeIndex
}

// Open opens (creating if needed) a store rooted at root and loads its
// index.
func Open(root string, log *logger.Logger) (*FileStore, error) {
	fs := &FileStore{
		root:   root,
		logger: log.WithField("component", "store"),
		index:  newStoreIndex(filepath.Join(root, indexFilename)),
	}

	for _, dir := range []string{root, fs.CandidatePath(), filepath.Join(root, EntryModels), filepath.Join(root, EntryData)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.WrapStoreError("", "open", err)
		}
	}

	if err := fs.index.Load(); err != nil {
		return nil, errors.WrapStoreError("", "load index", fmt.Errorf("%w: %v", errors.ErrStoreIndex, err))
	}

	fs.logger.Debug("store opened", "root", root)
	return fs, nil
}

// RootPath returns the store root directory.
func (fs *FileStore) RootPath() string {
	return fs.root
}

// CandidatePath returns the directory where candidate data files land.
func (fs *FileStore) CandidatePath() string {
	return filepath.Join(fs.root, EntryCandidates)
}

// Search returns the records registered for a domain under an entry kind.
// version is "latest" for the newest record, a version number for an exact
// match, or empty for all records (newest first). An unknown domain yields
// an empty result, not an error.
func (fs *FileStore) Search(domain, entry, version string) ([]ModelRecord, error) {
	records := fs.index.Lookup(entry, domain)
	sort.Slice(records, func(i, j int) bool { return records[i].Version > records[j].Version })

	switch version {
	case "":
		return records, nil
	case VersionLatest:
		if len(records) == 0 {
			return nil, nil
		}
		return records[:1], nil
	default:
		v, err := strconv.Atoi(version)
		if err != nil {
			return nil, errors.WrapStoreError(domain, "search", fmt.Errorf("invalid version %q", version))
		}
		for _, rec := range records {
			if rec.Version == v {
				return []ModelRecord{rec}, nil
			}
		}
		return nil, nil
	}
}

// AddModel registers a model record for a domain and persists the index.
func (fs *FileStore) AddModel(domain string, rec ModelRecord) (ModelRecord, error) {
	if rec.DBLabel == "" {
		rec.DBLabel = domain
	}
	added := fs.index.Add(EntryModels, domain, rec)
	if err := fs.index.Save(); err != nil {
		return ModelRecord{}, errors.WrapStoreError(domain, "save index", fmt.Errorf("%w: %v", errors.ErrStoreIndex, err))
	}
	fs.logger.Info("model registered", "domain", domain, "version", added.Version, "file", added.File)
	return added, nil
}

// Domains lists the domains with at least one registered model.
func (fs *FileStore) Domains() []string {
	return fs.index.Domains(EntryModels)
}

// MkdirTmp creates the store scratch directory if absent and returns it.
func (fs *FileStore) MkdirTmp() (string, error) {
	tmp := filepath.Join(fs.root, "tmp")
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return "", err
	}
	return tmp, nil
}

// UniqueArtifactPath returns a fresh unique filename under dir.
func (fs *FileStore) UniqueArtifactPath(dir, ext string) string {
	return filepath.Join(dir, uuid.NewString()+ext)
}
