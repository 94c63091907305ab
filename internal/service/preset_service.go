package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"

	"scaledrill/internal/cache"
	"scaledrill/internal/model"
	"scaledrill/internal/repository"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrNotPresetHost  = errors.New("unauthorized: not preset host")
)

// PresetWatcher is told when a preset's config changes
type PresetWatcher interface {
	PresetUpdated(ctx context.Context, presetCode string)
}

// PresetService handles host-authored drill configurations
type PresetService struct {
	presetRepo  repository.PresetRepo
	presetCache cache.PresetCache
	broadcaster Broadcaster
	watcher     PresetWatcher
}

// NewPresetService creates a new preset service
func NewPresetService(presetRepo repository.PresetRepo, presetCache cache.PresetCache) *PresetService {
	return &PresetService{
		presetRepo:  presetRepo,
		presetCache: presetCache,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *PresetService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetWatcher sets who is told about preset updates
func (s *PresetService) SetWatcher(w PresetWatcher) {
	s.watcher = w
}

// Create validates the config, assigns a code and stores the preset
func (s *PresetService) Create(ctx context.Context, hostID, name string, cfg model.DrillConfig) (*model.Preset, error) {
	cfg, err := canonical(cfg)
	if err != nil {
		return nil, err
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate preset code: %w", err)
	}

	preset := &model.Preset{
		Code:   code,
		HostID: hostID,
		Name:   strings.TrimSpace(name),
		Config: cfg,
	}
	if err := s.presetRepo.Create(ctx, preset); err != nil {
		return nil, fmt.Errorf("failed to create preset: %w", err)
	}
	if err := s.presetCache.SetMeta(ctx, preset.Meta()); err != nil {
		return nil, fmt.Errorf("failed to cache preset: %w", err)
	}
	return preset, nil
}

// Get returns a preset by code
func (s *PresetService) Get(ctx context.Context, code string) (*model.Preset, error) {
	preset, err := s.presetRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if preset == nil {
		return nil, ErrPresetNotFound
	}
	return preset, nil
}

// Meta returns cached preset metadata, falling back to MongoDB on a miss
func (s *PresetService) Meta(ctx context.Context, code string) (*model.PresetMeta, error) {
	meta, err := s.presetCache.GetMeta(ctx, code)
	if err != nil {
		log.Printf("preset cache get %s: %v", code, err)
	}
	if meta != nil {
		return meta, nil
	}

	preset, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	meta = preset.Meta()
	if err := s.presetCache.SetMeta(ctx, meta); err != nil {
		log.Printf("preset cache set %s: %v", code, err)
	}
	return meta, nil
}

// List returns all presets of a host
func (s *PresetService) List(ctx context.Context, hostID string) ([]*model.Preset, error) {
	return s.presetRepo.GetByHostID(ctx, hostID)
}

// Update replaces name and config and tells connected drills about it
func (s *PresetService) Update(ctx context.Context, code, hostID, name string, cfg model.DrillConfig) (*model.Preset, error) {
	cfg, err := canonical(cfg)
	if err != nil {
		return nil, err
	}

	preset, err := s.owned(ctx, code, hostID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		preset.Name = name
	}
	preset.Config = cfg
	if err := s.presetRepo.Update(ctx, preset); err != nil {
		return nil, fmt.Errorf("failed to update preset: %w", err)
	}
	if err := s.presetCache.SetMeta(ctx, preset.Meta()); err != nil {
		return nil, fmt.Errorf("failed to cache preset: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToPreset(code, "preset_updated", preset.Meta())
	}
	if s.watcher != nil {
		s.watcher.PresetUpdated(ctx, code)
	}
	return preset, nil
}

// Delete removes a preset. Running drills keep their copied config.
func (s *PresetService) Delete(ctx context.Context, code, hostID string) error {
	if _, err := s.owned(ctx, code, hostID); err != nil {
		return err
	}
	if err := s.presetRepo.Delete(ctx, code); err != nil {
		return err
	}
	return s.presetCache.Delete(ctx, code)
}

func (s *PresetService) owned(ctx context.Context, code, hostID string) (*model.Preset, error) {
	preset, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if preset.HostID != hostID {
		return nil, ErrNotPresetHost
	}
	return preset, nil
}

// generateCode creates a 6-char alphanumeric code
func (s *PresetService) generateCode(ctx context.Context) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}
		codeStr := string(code)

		exists, err := s.presetCache.Exists(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		existing, err := s.presetRepo.GetByCode(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique preset code")
}
