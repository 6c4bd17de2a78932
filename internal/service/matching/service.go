package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
	apperrors "github.com/strikeprep/staffing-api/pkg/errors"
	"github.com/strikeprep/staffing-api/pkg/metrics"
)

// Scoring weights. Skill coverage dominates; home-unit familiarity
// breaks near-ties; over-qualification costs a little so best-fit
// providers surface above broadly-skilled generalists.
const (
	MatchedSkillWeight  = 10
	HomeDepartmentBonus = 5
	HomeHospitalBonus   = 3
	ExtraSkillPenalty   = 2
)

// The skill catalog is admin-maintained reference data; a short TTL
// keeps match requests from re-reading it on every call.
const (
	skillCacheTTL     = 15 * time.Minute
	skillCacheCleanup = 1 * time.Hour
)

type Service struct {
	positions   repository.PositionRepository
	providers   repository.ProviderRepository
	skills      repository.SkillRepository
	assignments repository.AssignmentRepository
	skillCache  *cache.Cache
	metrics     *metrics.Metrics
}

func NewService(
	positions repository.PositionRepository,
	providers repository.ProviderRepository,
	skills repository.SkillRepository,
	assignments repository.AssignmentRepository,
	m *metrics.Metrics,
) *Service {
	return &Service{
		positions:   positions,
		providers:   providers,
		skills:      skills,
		assignments: assignments,
		skillCache:  cache.New(skillCacheTTL, skillCacheCleanup),
		metrics:     m,
	}
}

// FindMatches returns the ranked candidate list for a position, or an
// empty list when the position is not open or has no configured skill
// profile. The list may be slightly stale with respect to concurrent
// assignment writes; CreateAssignment re-validates at commit time.
func (s *Service) FindMatches(ctx context.Context, positionID uuid.UUID) ([]model.MatchCandidateView, error) {
	if s.metrics != nil {
		s.metrics.MatchRequests.Inc()
		timer := prometheus.NewTimer(s.metrics.MatchLatency)
		defer timer.ObserveDuration()
	}

	position, err := s.positions.Get(ctx, positionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("position", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	// Closed positions are never matched.
	if position.Status != model.PositionStatusOpen {
		return []model.MatchCandidateView{}, nil
	}

	required, err := s.ResolveSkillProfile(ctx, position.JobTypeID, position.ServiceID)
	if err != nil {
		return nil, err
	}
	// No configured skill profile means no matches are possible; skills
	// are advisory so this is not a hard error.
	if len(required) == 0 {
		return []model.MatchCandidateView{}, nil
	}

	eligible, counts, err := s.eligibleProviders(ctx, position)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.MatchCandidate, 0, len(eligible))
	for _, provider := range eligible {
		c := scoreCandidate(provider, position, required)
		c.ActiveCount = counts[provider.ID]
		candidates = append(candidates, c)
	}

	rankCandidates(candidates)

	if s.metrics != nil {
		s.metrics.MatchCandidateCount.Observe(float64(len(candidates)))
	}

	return s.enrich(ctx, candidates, required), nil
}

// ResolveSkillProfile returns the ordered required skills for a
// job-type-at-service configuration. A missing link yields an empty
// slice, not an error.
func (s *Service) ResolveSkillProfile(ctx context.Context, jobTypeID, serviceID uuid.UUID) ([]model.SkillRequirement, error) {
	key := jobTypeID.String() + ":" + serviceID.String()
	if cached, ok := s.skillCache.Get(key); ok {
		return cached.([]model.SkillRequirement), nil
	}

	required, err := s.skills.RequiredSkills(ctx, jobTypeID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve skill profile: %w", err)
	}

	s.skillCache.Set(key, required, cache.DefaultExpiration)
	return required, nil
}

// eligibleProviders enumerates providers sharing the position's job
// type and removes the ineligible: inactive, already holding an
// active/confirmed assignment anywhere, or lacking hospital access.
func (s *Service) eligibleProviders(ctx context.Context, position *model.Position) ([]*model.Provider, map[uuid.UUID]int, error) {
	providers, err := s.providers.ListByJobType(ctx, position.JobTypeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate candidates: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID)
	}
	counts, err := s.assignments.ActiveCountsByProvider(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count active assignments: %w", err)
	}

	eligible := make([]*model.Provider, 0, len(providers))
	for _, p := range providers {
		if !p.Active {
			continue
		}
		// Proactive one-active-assignment check; the create transition
		// enforces it again transactionally.
		if counts[p.ID] > 0 {
			continue
		}
		if !p.CanWorkAt(position.HospitalID) {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible, counts, nil
}

// scoreCandidate computes skill coverage, the categorical quality and
// the numeric score for one provider against a position.
func scoreCandidate(provider *model.Provider, position *model.Position, required []model.SkillRequirement) model.MatchCandidate {
	requiredSet := make(map[uuid.UUID]bool, len(required))
	for _, r := range required {
		requiredSet[r.SkillID] = true
	}
	heldSet := make(map[uuid.UUID]bool, len(provider.SkillIDs))
	for _, id := range provider.SkillIDs {
		heldSet[id] = true
	}

	matched := make([]uuid.UUID, 0, len(required))
	missing := make([]uuid.UUID, 0)
	for _, r := range required {
		if heldSet[r.SkillID] {
			matched = append(matched, r.SkillID)
		} else {
			missing = append(missing, r.SkillID)
		}
	}
	extra := make([]uuid.UUID, 0)
	for _, id := range provider.SkillIDs {
		if !requiredSet[id] {
			extra = append(extra, id)
		}
	}

	// Missing any required skill dominates the label regardless of
	// extras.
	quality := model.MatchQualityGood
	switch {
	case len(missing) > 0:
		quality = model.MatchQualityPartial
	case len(extra) == 0:
		quality = model.MatchQualityPerfect
	}

	score := MatchedSkillWeight * len(matched)
	if provider.HomeDepartmentID == position.DepartmentID {
		score += HomeDepartmentBonus
	}
	if provider.HomeHospitalID == position.HospitalID {
		score += HomeHospitalBonus
	}
	score -= ExtraSkillPenalty * len(extra)

	return model.MatchCandidate{
		ProviderID:     provider.ID,
		ProviderName:   provider.FullName(),
		LastName:       provider.LastName,
		Score:          score,
		Quality:        quality,
		MatchedSkills:  matched,
		MissingSkills:  missing,
		ExtraSkills:    extra,
		HomeDepartment: provider.HomeDepartmentID == position.DepartmentID,
		HomeHospital:   provider.HomeHospitalID == position.HospitalID,
	}
}

// rankCandidates orders by descending score, then ascending active
// assignment count, then ascending last name.
func rankCandidates(candidates []model.MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].ActiveCount != candidates[j].ActiveCount {
			return candidates[i].ActiveCount < candidates[j].ActiveCount
		}
		if candidates[i].LastName != candidates[j].LastName {
			return candidates[i].LastName < candidates[j].LastName
		}
		return candidates[i].ProviderID.String() < candidates[j].ProviderID.String()
	})
}

// enrich attaches skill display names. Name lookups back display-only
// fields, so a failed lookup yields bare ids rather than an error.
func (s *Service) enrich(ctx context.Context, candidates []model.MatchCandidate, required []model.SkillRequirement) []model.MatchCandidateView {
	names := make(map[uuid.UUID]string, len(required))
	for _, r := range required {
		names[r.SkillID] = r.Name
	}

	// Extras are not part of the requirement rows; resolve their names
	// separately and tolerate failure.
	var extraIDs []uuid.UUID
	for _, c := range candidates {
		extraIDs = append(extraIDs, c.ExtraSkills...)
	}
	if extraNames, err := s.skills.SkillNames(ctx, extraIDs); err == nil {
		for id, name := range extraNames {
			names[id] = name
		}
	}

	views := make([]model.MatchCandidateView, 0, len(candidates))
	for _, c := range candidates {
		view := model.MatchCandidateView{MatchCandidate: c}
		for _, id := range c.MatchedSkills {
			view.MatchedSkillNames = append(view.MatchedSkillNames, names[id])
		}
		for _, id := range c.MissingSkills {
			view.MissingSkillNames = append(view.MissingSkillNames, names[id])
		}
		for _, id := range c.ExtraSkills {
			view.ExtraSkillNames = append(view.ExtraSkillNames, names[id])
		}
		views = append(views, view)
	}
	return views
}
