package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"

	"scaledrill/internal/cache"
	"scaledrill/internal/model"
	"scaledrill/internal/theory"
)

var (
	ErrSessionNotFound = errors.New("drill session not found")
	ErrNoQuestion      = errors.New("no question has been issued")
	ErrInvalidConfig   = errors.New("invalid drill config")
)

// PresetSource resolves preset codes to their current config
type PresetSource interface {
	Meta(ctx context.Context, code string) (*model.PresetMeta, error)
}

// DrillService poses scale-degree questions and checks answers
type DrillService struct {
	sessionCache  cache.SessionCache
	questionCache cache.QuestionCache
	presets       PresetSource
	authSvc       *AuthService
	defaults      theory.Config
	rng           theory.Rand
	broadcaster   Broadcaster
	now           func() time.Time
}

// NewDrillService creates a new drill service
func NewDrillService(
	sessionCache cache.SessionCache,
	questionCache cache.QuestionCache,
	presets PresetSource,
	authSvc *AuthService,
	defaults theory.Config,
) *DrillService {
	return &DrillService{
		sessionCache:  sessionCache,
		questionCache: questionCache,
		presets:       presets,
		authSvc:       authSvc,
		defaults:      defaults,
		now:           time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *DrillService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetRand replaces the random source, nil restores the default
func (s *DrillService) SetRand(rng theory.Rand) {
	s.rng = rng
}

// Start opens a drill session and poses its first question
func (s *DrillService) Start(ctx context.Context, req *model.StartDrillRequest) (*model.StartDrillResponse, error) {
	session := &model.DrillSession{
		ID:        "d_" + uuid.New().String(),
		StartedAt: s.now(),
	}

	switch {
	case req.PresetCode != "":
		meta, err := s.presets.Meta(ctx, req.PresetCode)
		if err != nil {
			return nil, err
		}
		session.PresetCode = meta.Code
		session.Config = meta.Config
	case req.Config != nil:
		cfg, err := canonical(*req.Config)
		if err != nil {
			return nil, err
		}
		session.Config = cfg
	default:
		session.Config = model.NewDrillConfig(s.defaults)
	}

	if err := s.sessionCache.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.authSvc.GenerateDrillToken(session.ID, session.PresetCode)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	q, err := s.issue(ctx, session)
	if err != nil {
		return nil, err
	}
	s.announce(session.ID, q)

	return &model.StartDrillResponse{
		SessionID: session.ID,
		Token:     token,
		Config:    session.Config,
		Question:  q.View(),
	}, nil
}

// Session returns a live drill session
func (s *DrillService) Session(ctx context.Context, sessionID string) (*model.DrillSession, error) {
	session, err := s.sessionCache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Current returns the question currently posed. A new one is issued when
// none is cached or when the followed preset no longer allows it; only the
// caller sees it.
func (s *DrillService) Current(ctx context.Context, sessionID string) (*model.QuestionView, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q, err := s.questionCache.GetCurrent(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if q == nil || (session.PresetCode != "" && !fits(q, s.config(ctx, session))) {
		if q, err = s.issue(ctx, session); err != nil {
			return nil, err
		}
	}
	return q.View(), nil
}

// Next supersedes the current question with a new one
func (s *DrillService) Next(ctx context.Context, sessionID string) (*model.QuestionView, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q, err := s.issue(ctx, session)
	if err != nil {
		return nil, err
	}
	s.announce(sessionID, q)
	return q.View(), nil
}

// Answer checks raw text against the current question. The question is not
// advanced; call Next for that.
func (s *DrillService) Answer(ctx context.Context, sessionID, raw string) (*model.AnswerResponse, error) {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	q, err := s.questionCache.GetCurrent(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNoQuestion
	}

	resp := &model.AnswerResponse{
		QuestionKey: q.Key,
		Verdict:     theory.CheckAnswer(raw, q.Answer),
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, "verdict", resp)
	}
	return resp, nil
}

// UpdateConfig replaces the session's config and poses a new question.
// A session started from a preset stops following it.
func (s *DrillService) UpdateConfig(ctx context.Context, sessionID string, cfg model.DrillConfig) (*model.QuestionView, error) {
	cfg, err := canonical(cfg)
	if err != nil {
		return nil, err
	}
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Config = cfg
	session.PresetCode = ""
	if err := s.sessionCache.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.FollowPreset(sessionID, "")
	}
	q, err := s.issue(ctx, session)
	if err != nil {
		return nil, err
	}
	s.announce(sessionID, q)
	return q.View(), nil
}

// PresetUpdated poses a new question to every connected session following
// the preset
func (s *DrillService) PresetUpdated(ctx context.Context, presetCode string) {
	if s.broadcaster == nil {
		return
	}
	for _, id := range s.broadcaster.Followers(presetCode) {
		session, err := s.Session(ctx, id)
		if err != nil {
			continue
		}
		if session.PresetCode != presetCode {
			continue
		}
		q, err := s.issue(ctx, session)
		if err != nil {
			log.Printf("drill %s: refresh after preset %s update: %v", id, presetCode, err)
			continue
		}
		s.announce(id, q)
	}
}

// End closes a drill session
func (s *DrillService) End(ctx context.Context, sessionID string) error {
	if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
		return err
	}
	if err := s.questionCache.Forget(ctx, sessionID); err != nil {
		log.Printf("drill %s: forget questions: %v", sessionID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.DisconnectSession(sessionID)
	}
	return nil
}

// Generate produces a question with its answer without any session
func (s *DrillService) Generate(cfg model.DrillConfig) (*model.GeneratedQuestion, error) {
	tc, err := cfg.Theory()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	q, err := theory.NextQuestion(tc, s.rng)
	if err != nil {
		return nil, err
	}
	return &model.GeneratedQuestion{Prompt: q.Prompt, Answer: q.Answer}, nil
}

// Check compares raw text to an expected note without any session
func (s *DrillService) Check(raw, expected string) theory.Verdict {
	return theory.CheckAnswer(raw, expected)
}

// config returns the config questions are drawn from: the followed preset's
// current one, or the session's own
func (s *DrillService) config(ctx context.Context, session *model.DrillSession) model.DrillConfig {
	if session.PresetCode == "" {
		return session.Config
	}
	meta, err := s.presets.Meta(ctx, session.PresetCode)
	switch {
	case err == nil:
		return meta.Config
	case errors.Is(err, ErrPresetNotFound):
		// keep the copy taken at start
	default:
		log.Printf("drill %s: preset %s lookup: %v", session.ID, session.PresetCode, err)
	}
	return session.Config
}

// issue draws and caches a new question, superseding the current one
func (s *DrillService) issue(ctx context.Context, session *model.DrillSession) (*model.IssuedQuestion, error) {
	tc, err := s.config(ctx, session).Theory()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	tq, err := theory.NextQuestion(tc, s.rng)
	if err != nil {
		return nil, err
	}

	key, err := s.questionCache.NextKey(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate question key: %w", err)
	}
	q := model.NewIssuedQuestion(key, tq, s.now())
	if err := s.questionCache.SetCurrent(ctx, session.ID, q); err != nil {
		return nil, fmt.Errorf("failed to store question: %w", err)
	}
	return q, nil
}

func (s *DrillService) announce(sessionID string, q *model.IssuedQuestion) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, "question", q.View())
	}
}

// fits reports whether q could have been drawn from cfg
func fits(q *model.IssuedQuestion, cfg model.DrillConfig) bool {
	tc, err := cfg.Theory()
	if err != nil {
		return true
	}
	if q.Empty() {
		return len(tc.Roots) == 0 || len(tc.Modes) == 0 || len(tc.Degrees) == 0
	}
	mode, err := theory.ParseMode(q.Mode)
	if err != nil {
		return false
	}
	return slices.Contains(tc.Roots, q.Root) &&
		slices.Contains(tc.Modes, mode) &&
		slices.Contains(tc.Degrees, q.Degree)
}

// canonical validates cfg and rewrites it with deduplicated entries and
// canonical mode names
func canonical(cfg model.DrillConfig) (model.DrillConfig, error) {
	tc, err := cfg.Theory()
	if err != nil {
		return model.DrillConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return model.NewDrillConfig(tc), nil
}
