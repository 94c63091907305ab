package rest_test

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scaledrill/internal/cache"
	"scaledrill/internal/config"
	"scaledrill/internal/model"
	"scaledrill/internal/repository"
	"scaledrill/internal/service"
	"scaledrill/internal/theory"
	"scaledrill/internal/transport/rest"
	"scaledrill/internal/transport/ws"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	auth := service.NewAuthService("admin", "pw", "router-test", time.Hour)
	presets := service.NewPresetService(repository.NewMemoryPresetRepo(), cache.NewMemoryPresets())
	drills := service.NewDrillService(cache.NewMemorySessions(0), cache.NewMemoryQuestions(0), presets, auth, theory.DefaultConfig())
	drills.SetRand(rand.New(rand.NewPCG(1, 1)))

	hub := ws.NewHub()
	t.Cleanup(hub.Stop)
	drills.SetBroadcaster(hub)
	presets.SetBroadcaster(hub)
	presets.SetWatcher(drills)

	return rest.NewRouter(&rest.Container{
		AuthService:   auth,
		PresetService: presets,
		DrillService:  drills,
		WSHub:         hub,
		CORS: config.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET, POST, PUT, DELETE, OPTIONS",
			AllowedHeaders: "Content-Type, Authorization",
		},
	})
}

// do sends body as JSON and decodes the response into out when out is non-nil
func do(t *testing.T, h http.Handler, method, path, token string, body, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

type questionBody struct {
	Question model.QuestionView `json:"question"`
}

func TestPublicEndpoints(t *testing.T) {
	h := newTestRouter(t)

	if code := do(t, h, "GET", "/health", "", nil, nil); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}

	var opts model.OptionsResponse
	do(t, h, "GET", "/v1/options", "", nil, &opts)
	if len(opts.Roots) != 13 || opts.Roots[2] != "Db" || len(opts.Modes) != 2 || len(opts.Degrees) != 7 {
		t.Fatalf("options = %+v", opts)
	}

	var q model.GeneratedQuestion
	code := do(t, h, "POST", "/v1/questions", "", map[string]interface{}{
		"config": model.DrillConfig{Roots: []string{"F#"}, Modes: []string{"major"}, Degrees: []int{7}},
	}, &q)
	if code != http.StatusOK || q.Prompt != "7th degree of F# Major" || q.Answer != "F" {
		t.Fatalf("generate = %d %+v", code, q)
	}

	var empty model.GeneratedQuestion
	do(t, h, "POST", "/v1/questions", "", map[string]interface{}{"config": model.DrillConfig{}}, &empty)
	if empty.Prompt != theory.NoQuestionPrompt || empty.Answer != "" {
		t.Fatalf("generate empty = %+v", empty)
	}

	if code := do(t, h, "POST", "/v1/questions", "", map[string]interface{}{
		"config": model.DrillConfig{Roots: []string{"H"}},
	}, nil); code != http.StatusBadRequest {
		t.Fatalf("generate with bad root = %d, want 400", code)
	}

	var v theory.Verdict
	do(t, h, "POST", "/v1/check", "", model.CheckRequest{Answer: " a# ", Expected: "Bb"}, &v)
	if !v.IsCorrect() || v.Given != "A#" {
		t.Fatalf("check = %+v", v)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest("OPTIONS", "/v1/drills/answer", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q", got)
	}
}

func TestHostPresetFlow(t *testing.T) {
	h := newTestRouter(t)

	if code := do(t, h, "POST", "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "bad"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", code)
	}
	var login model.LoginResponse
	do(t, h, "POST", "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "pw"}, &login)

	if code := do(t, h, "GET", "/v1/presets", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("list without token = %d", code)
	}
	if code := do(t, h, "POST", "/v1/presets", login.Token, map[string]interface{}{"config": model.DrillConfig{}}, nil); code != http.StatusBadRequest {
		t.Fatalf("create without name = %d", code)
	}
	if code := do(t, h, "POST", "/v1/presets", login.Token, map[string]interface{}{"name": "   ", "config": model.DrillConfig{}}, nil); code != http.StatusBadRequest {
		t.Fatalf("create with blank name = %d, want 400", code)
	}

	var preset model.Preset
	code := do(t, h, "POST", "/v1/presets", login.Token, map[string]interface{}{
		"name":   "Flat minors",
		"config": model.DrillConfig{Roots: []string{"Eb"}, Modes: []string{"natural_minor"}, Degrees: []int{6}},
	}, &preset)
	if code != http.StatusCreated || preset.Code == "" || preset.Config.Modes[0] != "minor" {
		t.Fatalf("create = %d %+v", code, preset)
	}

	var list struct {
		Presets []model.Preset `json:"presets"`
	}
	do(t, h, "GET", "/v1/presets", login.Token, nil, &list)
	if len(list.Presets) != 1 || list.Presets[0].Code != preset.Code {
		t.Fatalf("list = %+v", list)
	}

	var start model.StartDrillResponse
	if code := do(t, h, "POST", "/v1/drills", "", model.StartDrillRequest{PresetCode: preset.Code}, &start); code != http.StatusCreated {
		t.Fatalf("start = %d", code)
	}
	if start.Question.Prompt != "6th degree of Eb Minor" {
		t.Fatalf("prompt = %q", start.Question.Prompt)
	}

	var ans model.AnswerResponse
	do(t, h, "POST", "/v1/drills/answer", start.Token, model.SubmitAnswerRequest{Answer: "b"}, &ans)
	if !ans.Verdict.IsCorrect() {
		t.Fatalf("answer(b) = %+v", ans)
	}

	var again model.LoginResponse
	do(t, h, "POST", "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "pw"}, &again)
	do(t, h, "GET", "/v1/presets", again.Token, nil, &list)
	if len(list.Presets) != 1 {
		t.Fatalf("list after second login = %+v", list)
	}

	// A host token signed with the same key for another username.
	other, err := service.NewAuthService("guest", "pw", "router-test", time.Hour).Login("guest", "pw")
	if err != nil {
		t.Fatalf("guest Login: %v", err)
	}
	if code := do(t, h, "DELETE", "/v1/presets/"+preset.Code, other.Token, nil, nil); code != http.StatusForbidden {
		t.Fatalf("delete by other host = %d, want 403", code)
	}
	if code := do(t, h, "DELETE", "/v1/presets/"+preset.Code, login.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	if code := do(t, h, "GET", "/v1/presets/"+preset.Code, login.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", code)
	}
}

func TestDrillFlow(t *testing.T) {
	h := newTestRouter(t)

	var start model.StartDrillResponse
	if code := do(t, h, "POST", "/v1/drills", "", nil, &start); code != http.StatusCreated {
		t.Fatalf("start with empty body = %d", code)
	}
	if len(start.Config.Roots) != 13 || start.Question.Key != "q1" {
		t.Fatalf("start = %+v", start)
	}

	if code := do(t, h, "GET", "/v1/drills/current", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("current without token = %d", code)
	}

	var cur questionBody
	do(t, h, "GET", "/v1/drills/current", start.Token, nil, &cur)
	if cur.Question.Key != "q1" || cur.Question.Prompt != start.Question.Prompt {
		t.Fatalf("current = %+v", cur)
	}

	var next questionBody
	do(t, h, "POST", "/v1/drills/next", start.Token, nil, &next)
	if next.Question.Key != "q2" {
		t.Fatalf("next = %+v", next)
	}

	var updated questionBody
	code := do(t, h, "PUT", "/v1/drills/config", start.Token, map[string]interface{}{
		"config": model.DrillConfig{Roots: []string{"A"}, Modes: []string{"minor"}, Degrees: []int{3}},
	}, &updated)
	if code != http.StatusOK || updated.Question.Prompt != "3rd degree of A Minor" {
		t.Fatalf("update config = %d %+v", code, updated)
	}

	var ans model.AnswerResponse
	do(t, h, "POST", "/v1/drills/answer", start.Token, model.SubmitAnswerRequest{Answer: "C#"}, &ans)
	if ans.Verdict.IsCorrect() || ans.Verdict.Expected != "C" || ans.QuestionKey != "q3" {
		t.Fatalf("answer(C#) = %+v", ans)
	}

	if code := do(t, h, "PUT", "/v1/drills/config", start.Token, map[string]interface{}{
		"config": model.DrillConfig{Modes: []string{"dorian"}},
	}, nil); code != http.StatusBadRequest {
		t.Fatalf("update with dorian = %d, want 400", code)
	}

	var emptyQ questionBody
	do(t, h, "PUT", "/v1/drills/config", start.Token, map[string]interface{}{"config": model.DrillConfig{}}, &emptyQ)
	if !emptyQ.Question.Empty || emptyQ.Question.Prompt != theory.NoQuestionPrompt {
		t.Fatalf("empty config question = %+v", emptyQ)
	}

	if code := do(t, h, "DELETE", "/v1/drills", start.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("end = %d", code)
	}
	if code := do(t, h, "GET", "/v1/drills/current", start.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("current after end = %d, want 404", code)
	}
}
