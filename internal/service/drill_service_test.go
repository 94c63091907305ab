package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"scaledrill/internal/cache"
	"scaledrill/internal/model"
	"scaledrill/internal/theory"
)

type drillFixture struct {
	drills    *DrillService
	presets   *PresetService
	questions *cache.MemoryQuestions
	bc        *recordingBroadcaster
	auth      *AuthService
}

func newDrillFixture(t *testing.T) *drillFixture {
	t.Helper()
	auth := NewAuthService("admin", "secret", "test-key", time.Hour)
	presets := NewPresetService(newMemPresetRepo(), newMemPresetCache())
	questions := newMemQuestions()
	drills := NewDrillService(newMemSessions(), questions, presets, auth, theory.DefaultConfig())
	drills.SetRand(rand.New(rand.NewPCG(7, 11)))
	bc := &recordingBroadcaster{}
	drills.SetBroadcaster(bc)
	presets.SetBroadcaster(bc)
	presets.SetWatcher(drills)
	return &drillFixture{drills: drills, presets: presets, questions: questions, bc: bc, auth: auth}
}

func TestStartDefaultConfig(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	resp, err := f.drills.Start(ctx, &model.StartDrillRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(resp.SessionID, "d_") {
		t.Fatalf("SessionID = %q", resp.SessionID)
	}
	if len(resp.Config.Roots) != len(theory.RootOptions) || len(resp.Config.Modes) != 2 {
		t.Fatalf("Config = %+v", resp.Config)
	}
	if resp.Question == nil || resp.Question.Key != "q1" || resp.Question.Empty {
		t.Fatalf("Question = %+v", resp.Question)
	}
	if !strings.Contains(resp.Question.Prompt, " degree of ") {
		t.Fatalf("Prompt = %q", resp.Question.Prompt)
	}

	claims, err := f.auth.ValidateDrillToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateDrillToken: %v", err)
	}
	if claims.SessionID != resp.SessionID {
		t.Fatalf("claims.SessionID = %q, want %q", claims.SessionID, resp.SessionID)
	}
}

func TestAnswerUsesIssuedQuestion(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	resp, err := f.drills.Start(ctx, &model.StartDrillRequest{Config: &model.DrillConfig{
		Roots:   []string{"Bb"},
		Modes:   []string{"major"},
		Degrees: []int{4},
	}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.Question.Prompt != "4th degree of Bb Major" {
		t.Fatalf("Prompt = %q", resp.Question.Prompt)
	}

	got, err := f.drills.Answer(ctx, resp.SessionID, "d#")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !got.Verdict.IsCorrect() || got.QuestionKey != "q1" {
		t.Fatalf("Answer(d#) = %+v", got)
	}

	got, err = f.drills.Answer(ctx, resp.SessionID, "E")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got.Verdict.IsCorrect() || got.Verdict.Expected != "Eb" {
		t.Fatalf("Answer(E) = %+v", got)
	}
}

func TestNextSupersedes(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	resp, err := f.drills.Start(ctx, &model.StartDrillRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	q, err := f.drills.Next(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Key != "q2" {
		t.Fatalf("Next key = %q, want q2", q.Key)
	}
	cur, err := f.drills.Current(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.Key != "q2" || cur.Prompt != q.Prompt {
		t.Fatalf("Current = %+v, want %+v", cur, q)
	}
}

func TestCurrentIssuesWhenMissing(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	resp, err := f.drills.Start(ctx, &model.StartDrillRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.questions.ClearCurrent(ctx, resp.SessionID)

	if _, err := f.drills.Answer(ctx, resp.SessionID, "C"); !errors.Is(err, ErrNoQuestion) {
		t.Fatalf("Answer err = %v, want ErrNoQuestion", err)
	}
	before := len(f.bc.types())
	cur, err := f.drills.Current(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.Key != "q2" {
		t.Fatalf("Current key = %q, want q2", cur.Key)
	}
	// The caller gets the question in the reply, so it is not broadcast too.
	if got := f.bc.types()[before:]; len(got) != 0 {
		t.Fatalf("Current broadcast %v", got)
	}
}

func TestEmptyConfigPlaceholder(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	resp, err := f.drills.Start(ctx, &model.StartDrillRequest{Config: &model.DrillConfig{
		Modes:   []string{"major"},
		Degrees: []int{1},
	}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !resp.Question.Empty || resp.Question.Prompt != theory.NoQuestionPrompt {
		t.Fatalf("Question = %+v", resp.Question)
	}

	got, err := f.drills.Answer(ctx, resp.SessionID, "C")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got.Verdict.IsCorrect() {
		t.Fatalf("placeholder accepted an answer: %+v", got)
	}
}

func TestUpdateConfig(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	resp, err := f.drills.Start(ctx, &model.StartDrillRequest{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	q, err := f.drills.UpdateConfig(ctx, resp.SessionID, model.DrillConfig{
		Roots:   []string{"G", "G"},
		Modes:   []string{"Major"},
		Degrees: []int{7},
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if q.Prompt != "7th degree of G Major" {
		t.Fatalf("Prompt = %q", q.Prompt)
	}
	session, err := f.drills.Session(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if !slices.Equal(session.Config.Roots, []string{"G"}) || session.Config.Modes[0] != "major" {
		t.Fatalf("Config = %+v", session.Config)
	}

	if len(f.bc.followed) != 1 || f.bc.followed[0] != resp.SessionID+"->" {
		t.Fatalf("followed = %v, want session detached", f.bc.followed)
	}

	if _, err := f.drills.UpdateConfig(ctx, resp.SessionID, model.DrillConfig{Roots: []string{"E#"}}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("UpdateConfig(E#) err = %v, want ErrInvalidConfig", err)
	}
}

func TestPresetDrillFollowsPreset(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	preset, err := f.presets.Create(ctx, "host_1", " Flats ", model.DrillConfig{
		Roots:   []string{"Eb"},
		Modes:   []string{"minor"},
		Degrees: []int{3},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(preset.Code) != 6 || preset.Name != "Flats" {
		t.Fatalf("preset = %+v", preset)
	}

	resp, err := f.drills.Start(ctx, &model.StartDrillRequest{PresetCode: preset.Code})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.Question.Prompt != "3rd degree of Eb Minor" {
		t.Fatalf("Prompt = %q", resp.Question.Prompt)
	}

	if _, err := f.presets.Update(ctx, preset.Code, "host_1", "", model.DrillConfig{
		Roots:   []string{"D"},
		Modes:   []string{"major"},
		Degrees: []int{3},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !slices.Contains(f.bc.types(), "preset_updated") {
		t.Fatalf("broadcasts = %v, want preset_updated", f.bc.types())
	}

	q, err := f.drills.Next(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Prompt != "3rd degree of D Major" {
		t.Fatalf("Prompt after update = %q", q.Prompt)
	}
	ans, _ := f.drills.Answer(ctx, resp.SessionID, "F#")
	if !ans.Verdict.IsCorrect() {
		t.Fatalf("Answer(F#) = %+v", ans)
	}
}

func TestPresetUpdateRefreshesFollowers(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()

	preset, err := f.presets.Create(ctx, "host_1", "Flats", model.DrillConfig{
		Roots: []string{"Eb"}, Modes: []string{"minor"}, Degrees: []int{3},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	connected, _ := f.drills.Start(ctx, &model.StartDrillRequest{PresetCode: preset.Code})
	offline, _ := f.drills.Start(ctx, &model.StartDrillRequest{PresetCode: preset.Code})
	f.bc.followers = map[string][]string{preset.Code: {connected.SessionID}}

	posed := 0
	sent := len(f.bc.types())
	if _, err := f.presets.Update(ctx, preset.Code, "host_1", "", model.DrillConfig{
		Roots: []string{"D"}, Modes: []string{"major"}, Degrees: []int{3},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for _, m := range f.bc.msgs[sent:] {
		if m.msgType == "question" {
			posed++
			if m.target != connected.SessionID {
				t.Fatalf("question sent to %s, want %s", m.target, connected.SessionID)
			}
		}
	}
	if posed != 1 {
		t.Fatalf("broadcasts after update = %v, want one question", f.bc.types()[sent:])
	}

	cur, err := f.drills.Current(ctx, connected.SessionID)
	if err != nil || cur.Key != "q2" || cur.Prompt != "3rd degree of D Major" {
		t.Fatalf("connected Current = %+v, %v", cur, err)
	}

	// Without a socket the stale question is replaced on the next Current.
	cur, err = f.drills.Current(ctx, offline.SessionID)
	if err != nil || cur.Key != "q2" || cur.Prompt != "3rd degree of D Major" {
		t.Fatalf("offline Current = %+v, %v", cur, err)
	}
	again, _ := f.drills.Current(ctx, offline.SessionID)
	if again.Key != "q2" {
		t.Fatalf("Current re-issued a fitting question: %+v", again)
	}
}

func TestStartUnknownPreset(t *testing.T) {
	f := newDrillFixture(t)
	_, err := f.drills.Start(context.Background(), &model.StartDrillRequest{PresetCode: "NOPE42"})
	if !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("err = %v, want ErrPresetNotFound", err)
	}
}

func TestSessionNotFound(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()
	if _, err := f.drills.Next(ctx, "d_missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Next err = %v", err)
	}
	if _, err := f.drills.Answer(ctx, "d_missing", "C"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Answer err = %v", err)
	}
}

func TestEndDisconnects(t *testing.T) {
	f := newDrillFixture(t)
	ctx := context.Background()
	resp, _ := f.drills.Start(ctx, &model.StartDrillRequest{})
	if err := f.drills.End(ctx, resp.SessionID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := f.drills.Session(ctx, resp.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Session after End err = %v", err)
	}
	if len(f.bc.disconnected) != 1 || f.bc.disconnected[0] != resp.SessionID {
		t.Fatalf("disconnected = %v", f.bc.disconnected)
	}
	if k, _ := f.questions.NextKey(ctx, resp.SessionID); k != "q1" {
		t.Fatalf("question counter survived End: next key %q", k)
	}
}

func TestGenerateAndCheck(t *testing.T) {
	f := newDrillFixture(t)
	q, err := f.drills.Generate(model.DrillConfig{Roots: []string{"C"}, Modes: []string{"minor"}, Degrees: []int{3}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if q.Prompt != "3rd degree of C Minor" || q.Answer != "D#" {
		t.Fatalf("Generate = %+v", q)
	}
	if v := f.drills.Check("eb", q.Answer); !v.IsCorrect() {
		t.Fatalf("Check(eb, D#) = %+v", v)
	}
	if _, err := f.drills.Generate(model.DrillConfig{Modes: []string{"phrygian"}}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Generate(phrygian) err = %v", err)
	}
}
