package avatar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
)

var ErrBytesWrittenMismatch = errors.New("bytes written mismatch")

// FileSystemAvatarRepositoryConfig holds configuration for the filesystem-based avatar repository.
type FileSystemAvatarRepositoryConfig struct {
	// Basedir is the directory avatars are written to
	Basedir string `env:"BASEDIR" default:"var/storage/profile_pics"`
}

// FileSystemAvatarRepositoryFactory creates a factory function that returns a new FileSystemRepository.
// The factory function implements the RepositoryFactory type.
func FileSystemAvatarRepositoryFactory(cfg FileSystemAvatarRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewFileSystemAvatarRepository(ctx, cfg)
	}
}

// NewFileSystemAvatarRepository creates the base directory if needed.
func NewFileSystemAvatarRepository(
	ctx context.Context,
	cfg FileSystemAvatarRepositoryConfig,
) (*FileSystemRepository, error) {
	log := logging.GetLogger("repo.avatar.filesystem_repository").With(
		logging.Group("repo", "basedir", cfg.Basedir),
	)

	repo := &FileSystemRepository{
		cfg: cfg,
		log: log,
	}

	if err := repo.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}

	return repo, nil
}

// FileSystemRepository implements Repository using one flat local directory.
type FileSystemRepository struct {
	cfg FileSystemAvatarRepositoryConfig
	log logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

func (fsRepo *FileSystemRepository) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(fsRepo.cfg.Basedir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

// GetFilename returns the full filesystem path for the avatar.
func (fsRepo *FileSystemRepository) GetFilename(filename string) string {
	return filepath.Join(fsRepo.cfg.Basedir, filename)
}

func (fsRepo *FileSystemRepository) Exists(_ context.Context, filename string) bool {
	if checkName(filename) != nil {
		return false
	}

	info, err := os.Stat(fsRepo.GetFilename(filename))

	return err == nil && info.Mode().IsRegular()
}

func (fsRepo *FileSystemRepository) URL(filename string) string {
	return StaticPrefix + filename
}

func (fsRepo *FileSystemRepository) Store(ctx context.Context, avatar *domain.Avatar) (err error) {
	filename := fsRepo.GetFilename(avatar.Filename)

	defer func() {
		log := fsRepo.log.With(logging.Group("avatar", "name", avatar.Filename, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "avatar store failed", "error", err)
		} else {
			log.DebugContext(ctx, "avatar stored", "size", len(avatar.Data))
		}
	}()

	if err := checkName(avatar.Filename); err != nil {
		return err
	}

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	if n, err := file.Write(avatar.Data); err != nil {
		return fmt.Errorf("write: %w", err)
	} else if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	} else if info, err := file.Stat(); err != nil {
		return fmt.Errorf("stat: %w", err)
	} else if int64(n) != info.Size() || n != len(avatar.Data) {
		return fmt.Errorf("%w: expected %d, got %d", ErrBytesWrittenMismatch, len(avatar.Data), n)
	}

	return nil
}

func (fsRepo *FileSystemRepository) Fetch(ctx context.Context, name string) (_ *domain.Avatar, err error) {
	filename := fsRepo.GetFilename(name)

	defer func() {
		log := fsRepo.log.With(logging.Group("avatar", "name", name, "filename", filename))
		if err != nil {
			log.DebugContext(ctx, "avatar fetch failed", "error", err)
		}
	}()

	if err := checkName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrAvatarNotFound, err)
		}

		return nil, fmt.Errorf("read: %w", err)
	}

	return &domain.Avatar{
		Filename: name,
		MIMEType: mimeTypeFor(name),
		Data:     data,
	}, nil
}
