// Package file provides file-based persistence for run records, one JSON
// document per run.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root    string
	runRepo *RunRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:    cleanRoot,
		runRepo: NewRunRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) RunRepository() persistence.RunRepository {
	return fp.runRepo
}

// RunRepository stores run records under <root>/runs.
type RunRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewRunRepository(root string) *RunRepository {
	return &RunRepository{dir: filepath.Join(root, "runs")}
}

func (r *RunRepository) Save(_ context.Context, record models.RunRecord) error {
	if record.ID == "" || strings.ContainsAny(record.ID, `/\`) {
		return persistence.NewRunError("Save", record.ID, persistence.ErrInvalidRun)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return persistence.NewRunError("Save", record.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = os.MkdirAll(r.dir, 0o750)
	if err != nil {
		return persistence.NewRunError("Save", record.ID, err)
	}

	target := filepath.Join(r.dir, record.ID+".json")
	tmp := target + ".tmp"

	err = os.WriteFile(tmp, data, 0o600)
	if err != nil {
		return persistence.NewRunError("Save", record.ID, err)
	}

	err = os.Rename(tmp, target)
	if err != nil {
		return persistence.NewRunError("Save", record.ID, err)
	}

	return nil
}

func (r *RunRepository) GetByID(_ context.Context, id string) (*models.RunRecord, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, err := r.read(id + ".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetByID", id, err)
	}

	return record, nil
}

func (r *RunRepository) List(_ context.Context, opts persistence.ListRunsOptions) ([]models.RunRecord, error) {
	opts = opts.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	files, err := fs.Glob(os.DirFS(r.dir), "*.json")
	if err != nil {
		return nil, persistence.NewRunError("List", "", err)
	}

	records := make([]models.RunRecord, 0, len(files))

	for _, name := range files {
		record, err := r.read(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, persistence.NewRunError("List", strings.TrimSuffix(name, ".json"), err)
		}

		if opts.Matches(*record) {
			records = append(records, *record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinishedAt.After(records[j].FinishedAt)
	})

	if len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	return records, nil
}

func (r *RunRepository) read(name string) (*models.RunRecord, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return nil, err
	}

	var record models.RunRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	return &record, nil
}
