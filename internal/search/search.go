// Package search implements free-text semantic search over profiles
// and complementary-skill recommendation, both cache-aside over the
// vector index (spec §4.3, original_source routers/search.py).
package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/otitou/wap-backend-go/internal/cache"
	"github.com/otitou/wap-backend-go/internal/embedding"
	"github.com/otitou/wap-backend-go/internal/vectorindex"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// Mode selects which named vector(s) a profile search runs against.
type Mode string

const (
	ModeOffers Mode = "offers"
	ModeNeeds  Mode = "needs"
	ModeBoth   Mode = "both"
)

const (
	searchCacheTTL      = time.Hour
	recommendCacheTTL   = 2 * time.Hour
	recommendWideLimit  = 20
	recommendThreshold  = 0.4
	minMeaningfulLength = 10
	maxSkillsPerProfile = 5
)

// Result is a single scored search hit.
type Result struct {
	UID            string  `json:"uid"`
	DisplayName    string  `json:"display_name"`
	SkillsToOffer  string  `json:"skills_to_offer"`
	ServicesNeeded string  `json:"services_needed"`
	Score          float64 `json:"score"`
}

// SkillRecommendation is a complementary skill mined from similar profiles.
type SkillRecommendation struct {
	Skill  string  `json:"skill"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Service is the semantic search/recommendation engine.
type Service struct {
	index    *vectorindex.Index
	embedder *embedding.Client
	cache    *cache.Cache
	log      *logging.Logger
}

// New builds a Service.
func New(idx *vectorindex.Index, emb *embedding.Client, c *cache.Cache) *Service {
	return &Service{index: idx, embedder: emb, cache: c, log: logging.GetDefault().Component("search")}
}

// Search runs a semantic query against profiles in the given mode,
// caching results for an hour keyed by the canonical request shape.
func (s *Service) Search(ctx context.Context, query string, limit int, scoreThreshold float64, mode Mode) ([]Result, error) {
	key := cache.Key("search", map[string]any{
		"query":     query,
		"limit":     limit,
		"threshold": scoreThreshold,
		"mode":      string(mode),
	})

	var cached []Result
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	queryVec, err := s.embedder.Encode(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []Result
	switch mode {
	case ModeNeeds:
		results, err = s.searchDirection(ctx, vectorindex.DirectionNeed, queryVec, limit, scoreThreshold)
	case ModeBoth:
		results, err = s.searchBoth(ctx, queryVec, limit, scoreThreshold)
	default:
		results, err = s.searchDirection(ctx, vectorindex.DirectionOffer, queryVec, limit, scoreThreshold)
	}
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, results, searchCacheTTL)
	return results, nil
}

func (s *Service) searchDirection(ctx context.Context, dir vectorindex.Direction, vec []float32, limit int, threshold float64) ([]Result, error) {
	hits, err := s.index.Search(ctx, dir, vec, uint64(limit), float32(threshold))
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = hitToResult(h)
	}
	return out, nil
}

func (s *Service) searchBoth(ctx context.Context, vec []float32, limit int, threshold float64) ([]Result, error) {
	offerHits, err := s.index.Search(ctx, vectorindex.DirectionOffer, vec, uint64(limit), float32(threshold))
	if err != nil {
		return nil, err
	}
	needHits, err := s.index.Search(ctx, vectorindex.DirectionNeed, vec, uint64(limit), float32(threshold))
	if err != nil {
		return nil, err
	}

	combined := make(map[string]Result, len(offerHits)+len(needHits))
	for _, h := range append(offerHits, needHits...) {
		r := hitToResult(h)
		if prev, ok := combined[r.UID]; !ok || r.Score > prev.Score {
			combined[r.UID] = r
		}
	}

	out := make([]Result, 0, len(combined))
	for _, r := range combined {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecommendSkills mines complementary skills from profiles similar to
// currentSkills, weighting what similar people teach over what they
// still want to learn (original_source's 0.8 need-weight discount).
func (s *Service) RecommendSkills(ctx context.Context, currentSkills string, limit int) ([]SkillRecommendation, error) {
	key := cache.Key("skill_recommend", map[string]any{"skills": currentSkills, "limit": limit})

	var cached []SkillRecommendation
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	queryVec, err := s.embedder.Encode(ctx, currentSkills)
	if err != nil {
		return nil, err
	}

	offerHits, err := s.index.Search(ctx, vectorindex.DirectionOffer, queryVec, recommendWideLimit, recommendThreshold)
	if err != nil {
		return nil, err
	}
	needHits, err := s.index.Search(ctx, vectorindex.DirectionNeed, queryVec, recommendWideLimit, recommendThreshold)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count      int
		totalScore float64
	}
	freq := make(map[string]*agg)

	accumulate := func(hits []vectorindex.Hit, field string, weight float64) {
		for _, h := range hits {
			text, _ := h.Payload[field].(string)
			for _, skill := range splitSkills(text) {
				if len(skill) < minMeaningfulLength {
					continue
				}
				if freq[skill] == nil {
					freq[skill] = &agg{}
				}
				score := float64(h.Score)
				if score == 0 {
					score = 0.5
				}
				freq[skill].count++
				freq[skill].totalScore += score * weight
			}
		}
	}
	accumulate(offerHits, "skills_to_offer", 1.0)
	accumulate(needHits, "services_needed", 0.8)

	recs := make([]SkillRecommendation, 0, len(freq))
	for skill, a := range freq {
		avgScore := a.totalScore / float64(max(a.count, 1))
		combined := float64(a.count)*0.3 + avgScore*0.7
		recs = append(recs, SkillRecommendation{
			Skill:  skill,
			Score:  combined,
			Reason: reasonForCount(a.count),
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	s.cache.Set(ctx, key, recs, recommendCacheTTL)
	return recs, nil
}

func splitSkills(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, ",", ".")
	parts := strings.Split(normalized, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
		if len(out) >= maxSkillsPerProfile {
			break
		}
	}
	return out
}

func hitToResult(h vectorindex.Hit) Result {
	displayName, _ := h.Payload["display_name"].(string)
	offers, _ := h.Payload["skills_to_offer"].(string)
	needs, _ := h.Payload["services_needed"].(string)
	return Result{
		UID:            h.UID,
		DisplayName:    displayName,
		SkillsToOffer:  offers,
		ServicesNeeded: needs,
		Score:          float64(h.Score),
	}
}

func reasonForCount(count int) string {
	if count == 1 {
		return "Common among 1 similar profile"
	}
	return "Common among " + strconv.Itoa(count) + " similar profiles"
}
