// Package file хранит снимки корзины в JSON-файлах, по одному на имя.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var snapshotNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// CartRepository сохраняет снимки в каталоге dir как <name>.json.
type CartRepository struct {
	dir string
	mu  sync.Mutex
}

// NewCartRepository создаёт каталог при необходимости.
func NewCartRepository(dir string) (*CartRepository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file cart repository: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &CartRepository{dir: dir}, nil
}

func (r *CartRepository) Load(_ context.Context, name string) (domain.CartSnapshot, error) {
	path, err := r.path(name)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CartSnapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.CartSnapshot{}, fmt.Errorf("read snapshot %s: %w", name, err)
	}

	var snapshot domain.CartSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return snapshot, nil
}

// Save пишет во временный файл и переименовывает его, чтобы читатель не увидел половину снимка.
func (r *CartRepository) Save(_ context.Context, name string, snapshot domain.CartSnapshot) error {
	path, err := r.path(name)
	if err != nil {
		return err
	}
	if snapshot.Items == nil {
		snapshot.Items = []domain.LineItem{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(r.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", name, err)
	}
	return nil
}

func (r *CartRepository) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrSnapshotNameRequired
	}
	if !snapshotNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(r.dir, name+".json"), nil
}

var _ domain.CartRepository = (*CartRepository)(nil)
