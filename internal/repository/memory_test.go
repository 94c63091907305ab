package repository

import (
	"context"
	"testing"

	"scaledrill/internal/model"
)

func TestMemoryPresetRepo(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryPresetRepo()

	a := &model.Preset{Code: "AAAAAA", HostID: "host_1", Name: "a", Config: model.DrillConfig{Roots: []string{"C"}}}
	b := &model.Preset{Code: "BBBBBB", HostID: "host_1", Name: "b"}
	c := &model.Preset{Code: "CCCCCC", HostID: "host_2", Name: "c"}
	for _, p := range []*model.Preset{a, b, c} {
		if err := r.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s): %v", p.Code, err)
		}
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Fatalf("Create did not stamp preset: %+v", a)
	}
	if err := r.Create(ctx, &model.Preset{Code: "AAAAAA"}); err == nil {
		t.Fatal("duplicate code accepted")
	}

	list, err := r.GetByHostID(ctx, "host_1")
	if err != nil {
		t.Fatalf("GetByHostID: %v", err)
	}
	if len(list) != 2 || list[0].Code != "BBBBBB" {
		t.Fatalf("GetByHostID = %v, want newest first", list)
	}

	a.Config.Roots[0] = "D"
	got, _ := r.GetByCode(ctx, "AAAAAA")
	if got.Config.Roots[0] != "C" {
		t.Fatalf("stored preset shares memory with caller: %v", got.Config.Roots)
	}

	got.Name = "renamed"
	if err := r.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = r.GetByCode(ctx, "AAAAAA")
	if got.Name != "renamed" {
		t.Fatalf("Name = %q, want renamed", got.Name)
	}

	r.Delete(ctx, "AAAAAA")
	if got, _ := r.GetByCode(ctx, "AAAAAA"); got != nil {
		t.Fatalf("GetByCode after Delete = %+v", got)
	}
}
