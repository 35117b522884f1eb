package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir writes documents as files under Root. A handle's ID is the file name.
// Existing files are never replaced: a taken name gets a numeric suffix
// ("part-1-2.pdf").
type Dir struct {
	Root string
}

// NewDir creates root if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Dir{Root: root}, nil
}

func (d *Dir) Create(ctx context.Context, data []byte, filename, contentType string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	name, err := cleanName(filename)
	if err != nil {
		return Handle{}, err
	}
	f, name, err := d.createUnique(name)
	if err != nil {
		return Handle{}, err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return Handle{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Handle{}, fmt.Errorf("write %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Handle{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return Handle{
		ID:          name,
		Filename:    name,
		ContentType: contentType,
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC(),
	}, nil
}

// maxSuffix bounds the search for a free name.
const maxSuffix = 10000

func (d *Dir) createUnique(name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; n <= maxSuffix+1; n++ {
		f, err := os.OpenFile(filepath.Join(d.Root, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("create %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	return nil, "", fmt.Errorf("no free file name for %s", name)
}

func (d *Dir) Remove(_ context.Context, id string) error {
	name, err := cleanName(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.Root, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (d *Dir) Fetch(_ context.Context, id string) (Handle, []byte, error) {
	name, err := cleanName(id)
	if err != nil {
		return Handle{}, nil, err
	}
	path := filepath.Join(d.Root, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Handle{}, nil, ErrNotFound
		}
		return Handle{}, nil, fmt.Errorf("read %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Handle{}, nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return Handle{
		ID:          name,
		Filename:    name,
		ContentType: "application/pdf",
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC(),
	}, data, nil
}

// cleanName rejects names that would escape Root.
func cleanName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsRune(name, os.PathSeparator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return name, nil
}
