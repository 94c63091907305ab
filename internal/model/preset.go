package model

import "time"

// Preset is a named drill configuration authored by a host and shared by code
type Preset struct {
	ID        string      `json:"id" bson:"_id,omitempty"`
	Code      string      `json:"code" bson:"code"`
	HostID    string      `json:"hostId" bson:"hostId"`
	Name      string      `json:"name" bson:"name"`
	Config    DrillConfig `json:"config" bson:"config"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// PresetMeta is the cached view of a preset used when starting drills
type PresetMeta struct {
	Code      string      `json:"code"`
	HostID    string      `json:"hostId"`
	Name      string      `json:"name"`
	Config    DrillConfig `json:"config"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Meta returns the cacheable part of p
func (p *Preset) Meta() *PresetMeta {
	return &PresetMeta{
		Code:      p.Code,
		HostID:    p.HostID,
		Name:      p.Name,
		Config:    p.Config,
		UpdatedAt: p.UpdatedAt,
	}
}
