package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scaledrill/internal/model"
)

// MemoryPresetRepo is an in-memory PresetRepo for local runs without
// MongoDB. Stored presets are copied on the way in and out.
type MemoryPresetRepo struct {
	mu     sync.RWMutex
	nextID int
	data   map[string]model.Preset
}

// NewMemoryPresetRepo creates an empty in-memory preset repository
func NewMemoryPresetRepo() *MemoryPresetRepo {
	return &MemoryPresetRepo{data: make(map[string]model.Preset)}
}

func (r *MemoryPresetRepo) Create(_ context.Context, preset *model.Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[preset.Code]; ok {
		return fmt.Errorf("preset code %s already exists", preset.Code)
	}
	now := time.Now()
	r.nextID++
	preset.ID = fmt.Sprintf("mem%06d", r.nextID)
	preset.CreatedAt = now
	preset.UpdatedAt = now
	r.data[preset.Code] = clonePreset(preset)
	return nil
}

func (r *MemoryPresetRepo) GetByCode(_ context.Context, code string) (*model.Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[code]
	if !ok {
		return nil, nil
	}
	cp := clonePreset(&p)
	return &cp, nil
}

func (r *MemoryPresetRepo) GetByHostID(_ context.Context, hostID string) ([]*model.Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	presets := make([]*model.Preset, 0)
	for _, p := range r.data {
		if p.HostID != hostID {
			continue
		}
		cp := clonePreset(&p)
		presets = append(presets, &cp)
	}
	sort.Slice(presets, func(i, j int) bool {
		if presets[i].CreatedAt.Equal(presets[j].CreatedAt) {
			return presets[i].ID > presets[j].ID
		}
		return presets[i].CreatedAt.After(presets[j].CreatedAt)
	})
	return presets, nil
}

func (r *MemoryPresetRepo) Update(_ context.Context, preset *model.Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.data[preset.Code]
	if !ok {
		return nil
	}
	preset.UpdatedAt = time.Now()
	old.Name = preset.Name
	old.Config = preset.Config
	old.UpdatedAt = preset.UpdatedAt
	r.data[preset.Code] = clonePreset(&old)
	return nil
}

func (r *MemoryPresetRepo) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, code)
	return nil
}

func clonePreset(p *model.Preset) model.Preset {
	cp := *p
	cp.Config = model.DrillConfig{
		Roots:   append([]string(nil), p.Config.Roots...),
		Modes:   append([]string(nil), p.Config.Modes...),
		Degrees: append([]int(nil), p.Config.Degrees...),
	}
	return cp
}

var _ PresetRepo = (*MemoryPresetRepo)(nil)
