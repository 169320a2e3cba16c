// Package media хранит вложения инцидентов в файловой системе afero
// и выдает на них публичные ссылки.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/afero"
)

var ErrInvalidKey = errors.New("media: invalid key")

type Store struct {
	fs      afero.Fs
	baseURL string
}

// NewStore создает хранилище поверх fs. baseURL - префикс ссылок без завершающего "/".
func NewStore(fs afero.Fs, baseURL string) *Store {
	return &Store{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewDiskStore хранит файлы в каталоге dir
func NewDiskStore(dir, baseURL string) (*Store, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: could not create %s: %w", dir, err)
	}
	return NewStore(afero.NewBasePathFs(osFs, dir), baseURL), nil
}

// Upload сохраняет body под ключом key и возвращает ссылку на файл
func (s *Store) Upload(ctx context.Context, key string, body io.Reader) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if dir := path.Dir(clean); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("media: could not create directory: %w", err)
		}
	}

	f, err := s.fs.Create(clean)
	if err != nil {
		return "", fmt.Errorf("media: could not create %s: %w", clean, err)
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: body}); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(clean)
		return "", fmt.Errorf("media: could not write %s: %w", clean, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(clean)
		return "", fmt.Errorf("media: could not close %s: %w", clean, err)
	}

	return s.baseURL + "/" + clean, nil
}

// FileSystem отдает сохраненные файлы для раздачи по HTTP
func (s *Store) FileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs)
}

func cleanKey(key string) (string, error) {
	clean := path.Clean(strings.TrimLeft(key, "/"))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}

// ctxReader прерывает копирование при отмене контекста
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
