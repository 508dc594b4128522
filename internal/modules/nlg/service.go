package nlg

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
)

// Name is the service name and state namespace.
const Name = "nlg"

// ErrNoTemplateFile is returned by Watch when the service uses the built-in templates.
var ErrNoTemplateFile = errors.New("no template file configured")

//go:embed templates.yaml
var defaultTemplates []byte

// Option configures the NLG service.
type Option func(*Service)

// WithTemplateFile loads templates from path on fs instead of the built-in set.
func WithTemplateFile(fs afero.Fs, path string) Option {
	return func(s *Service) {
		s.fs = fs
		s.path = path
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service renders system acts into messages using templates.
type Service struct {
	service.Base

	fs     afero.Fs
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	templates *TemplateSet

	watchMu  sync.Mutex
	watching bool
}

// New creates the NLG service and loads its templates.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		Base:   service.NewBase(Name),
		logger: slog.Default().With("service", Name),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Register declares the generation handler.
func (s *Service) Register(r *service.Registrar) error {
	return r.Handle("generate", s.generate,
		service.Consumes(topics.SysAct.Name()),
		service.Produces(topics.SysUtterance.Name()))
}

// Templates returns the active template set.
func (s *Service) Templates() *TemplateSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates
}

// Reload reads the template file again. On failure the previous set stays active.
func (s *Service) Reload() error {
	data := defaultTemplates
	if s.path != "" {
		var err error
		data, err = afero.ReadFile(s.fs, s.path)
		if err != nil {
			return fmt.Errorf("failed to read templates %s: %w", s.path, err)
		}
	}

	set, err := ParseTemplates(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.templates = set
	s.mu.Unlock()

	s.logger.Info("NLG templates loaded", "path", s.source(), "acts", set.Acts())
	return nil
}

func (s *Service) source() string {
	if s.path == "" {
		return "builtin"
	}
	return s.path
}

func (s *Service) generate(ctx context.Context, userID string, in service.Inputs) (service.Outputs, error) {
	act, err := acts.Decode[acts.SysAct](in[topics.SysAct.Name()])
	if err != nil {
		return nil, fmt.Errorf("invalid system act: %w", err)
	}

	messages, err := s.Templates().Render(userID, act)
	if err != nil {
		return nil, err
	}
	return service.Outputs{topics.SysUtterance.Name(): messages}, nil
}

// Watch reloads the templates whenever the template file changes on disk,
// until ctx is cancelled. The directory is watched so that editors replacing
// the file are picked up too.
func (s *Service) Watch(ctx context.Context) error {
	if s.path == "" {
		return ErrNoTemplateFile
	}

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watching {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	s.watching = true
	go s.watchFiles(ctx, watcher)

	s.logger.Info("Watching NLG templates", "path", s.path)
	return nil
}

func (s *Service) watchFiles(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		watcher.Close()
		s.watchMu.Lock()
		s.watching = false
		s.watchMu.Unlock()
		s.logger.Info("Template watcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleFileEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("Template watcher error", "error", err)
		}
	}
}

func (s *Service) handleFileEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(s.path) {
		return
	}

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if err := s.Reload(); err != nil {
			s.logger.Error("Failed to reload NLG templates, keeping previous set", "path", s.path, "error", err)
		}

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		s.logger.Warn("Template file removed, keeping previous set", "path", s.path)
	}
}
