// Package directory разрешает введённые пользователем имена больниц и доноров в идентификаторы.
package directory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/drop4life/internal/repository"
)

const (
	hospitalKeyPrefix = "directory:hospital:"
	donorKeyPrefix    = "directory:donor:"
)

// Repository описывает поиск идентификаторов по точному имени.
type Repository interface {
	GetHospitalIDByName(ctx context.Context, name string) (int64, error)
	GetDonorIDByName(ctx context.Context, name string) (int64, error)
}

// Cache хранит найденные соответствия имя -> идентификатор. Промахи не кешируются.
type Cache interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, id int64) error
	Delete(ctx context.Context, keys ...string) error
}

// Directory выполняет поиск с опциональным кешем.
type Directory struct {
	repo   Repository
	cache  Cache
	logger *zap.Logger
}

// New создаёт Directory. cache может быть nil.
func New(repo Repository, cache Cache, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// ResolveHospitalID возвращает идентификатор больницы с точно совпадающим именем.
// Пустое имя сразу даёт repository.ErrHospitalNotFound без обращения к хранилищу.
func (d *Directory) ResolveHospitalID(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, repository.ErrHospitalNotFound
	}
	return d.resolve(ctx, hospitalKeyPrefix+name, func() (int64, error) {
		return d.repo.GetHospitalIDByName(ctx, name)
	})
}

// ResolveDonorID возвращает идентификатор донора с точно совпадающим именем.
// При совпадении нескольких доноров возвращается зарегистрированный первым.
func (d *Directory) ResolveDonorID(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, repository.ErrDonorNotFound
	}
	return d.resolve(ctx, donorKeyPrefix+name, func() (int64, error) {
		return d.repo.GetDonorIDByName(ctx, name)
	})
}

// ForgetDonor удаляет закешированные соответствия для переданных имён донора.
func (d *Directory) ForgetDonor(ctx context.Context, names ...string) {
	if d.cache == nil || len(names) == 0 {
		return
	}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			keys = append(keys, donorKeyPrefix+n)
		}
	}
	if err := d.cache.Delete(ctx, keys...); err != nil {
		d.logger.Warn("directory cache delete error", zap.Error(err), zap.Strings("keys", keys))
	}
}

func (d *Directory) resolve(ctx context.Context, key string, lookup func() (int64, error)) (int64, error) {
	if d.cache != nil {
		id, ok, err := d.cache.Get(ctx, key)
		if err != nil {
			d.logger.Warn("directory cache get error", zap.Error(err), zap.String("key", key))
		} else if ok {
			return id, nil
		}
	}

	id, err := lookup()
	if err != nil {
		return 0, err
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, id); err != nil {
			d.logger.Warn("directory cache set error", zap.Error(err), zap.String("key", key))
		}
	}

	return id, nil
}
