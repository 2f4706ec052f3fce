// Package matching implements the reciprocal skill-match algorithm
// (spec §4.2): two directional vector searches intersected and scored
// by harmonic mean, so a match only surfaces when both sides' wants
// are satisfied.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/otitou/wap-backend-go/internal/cache"
	"github.com/otitou/wap-backend-go/internal/embedding"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/internal/vectorindex"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

// wideSearchLimit is the candidate width pulled from each directional
// search before intersection (original_source K_WIDE=50).
const wideSearchLimit = 50

// wideScoreThreshold is the minimum per-direction cosine score
// considered during the wide search (original_source: 0.2).
const wideScoreThreshold = 0.2

// matchNotifyDedupeTTL bounds how often the same pair is re-notified
// of their match (SPEC_FULL open-question decision).
const matchNotifyDedupeTTL = 24 * time.Hour

// Match is a scored reciprocal candidate.
type Match struct {
	UID             string
	DisplayName     string
	SkillsToOffer   string
	ServicesNeeded  string
	ReciprocalScore float64
	OfferMatchScore float64
	NeedMatchScore  float64
}

// Matcher computes reciprocal matches for a profile.
type Matcher struct {
	store    *store.Store
	index    *vectorindex.Index
	embedder *embedding.Client
	cache    *cache.Cache
	log      *logging.Logger
}

// New builds a Matcher.
func New(st *store.Store, idx *vectorindex.Index, emb *embedding.Client, c *cache.Cache) *Matcher {
	return &Matcher{store: st, index: idx, embedder: emb, cache: c, log: logging.GetDefault().Component("matching")}
}

// FindReciprocalMatches runs the two-directional search and returns
// the top `limit` candidates by harmonic mean score, excluding the
// requesting user, blocked users, and users with no indexable skills.
func (m *Matcher) FindReciprocalMatches(ctx context.Context, uid, offerText, needText string, limit int) ([]Match, error) {
	offerVec, err := m.embedder.Encode(ctx, offerText)
	if err != nil {
		return nil, fmt.Errorf("embed offer text: %w", err)
	}
	needVec, err := m.embedder.Encode(ctx, needText)
	if err != nil {
		return nil, fmt.Errorf("embed need text: %w", err)
	}

	// Search 1: people who want what I offer — search their need_vec
	// against my offer embedding.
	theyNeed, err := m.index.Search(ctx, vectorindex.DirectionNeed, offerVec, wideSearchLimit, wideScoreThreshold)
	if err != nil {
		return nil, err
	}
	// Search 2: people who offer what I need — search their offer_vec
	// against my need embedding.
	theyOffer, err := m.index.Search(ctx, vectorindex.DirectionOffer, needVec, wideSearchLimit, wideScoreThreshold)
	if err != nil {
		return nil, err
	}

	needScores := make(map[string]vectorindex.Hit, len(theyNeed))
	for _, h := range theyNeed {
		needScores[h.UID] = h
	}
	offerScores := make(map[string]float32, len(theyOffer))
	for _, h := range theyOffer {
		offerScores[h.UID] = h.Score
	}

	var out []Match
	for candidateUID, needHit := range needScores {
		offerScore, ok := offerScores[candidateUID]
		if !ok || candidateUID == uid {
			continue
		}
		blocked, err := m.store.HasBlock(uid, candidateUID)
		if err != nil {
			return nil, err
		}
		if blocked {
			continue
		}
		harmonic := 2 * float64(needHit.Score) * float64(offerScore) / (float64(needHit.Score) + float64(offerScore))
		out = append(out, Match{
			UID:             candidateUID,
			DisplayName:     stringPayload(needHit.Payload, "display_name"),
			SkillsToOffer:   stringPayload(needHit.Payload, "skills_to_offer"),
			ServicesNeeded:  stringPayload(needHit.Payload, "services_needed"),
			ReciprocalScore: harmonic,
			OfferMatchScore: float64(offerScore),
			NeedMatchScore:  float64(needHit.Score),
		})
	}

	sortMatches(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sortMatches orders matches by descending ReciprocalScore. Ties break
// by higher min(OfferMatchScore, NeedMatchScore), then by uid
// lexicographically (spec §4.2).
func sortMatches(out []Match) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReciprocalScore != out[j].ReciprocalScore {
			return out[i].ReciprocalScore > out[j].ReciprocalScore
		}
		iMin := math.Min(out[i].OfferMatchScore, out[i].NeedMatchScore)
		jMin := math.Min(out[j].OfferMatchScore, out[j].NeedMatchScore)
		if iMin != jMin {
			return iMin > jMin
		}
		return out[i].UID < out[j].UID
	})
}

// ShouldNotify reports whether uid/otherUID have not yet been
// notified of their match within the dedupe window, claiming the
// notification slot atomically if so.
func (m *Matcher) ShouldNotify(ctx context.Context, uidA, uidB string) bool {
	lo, hi := uidA, uidB
	if hi < lo {
		lo, hi = hi, lo
	}
	key := fmt.Sprintf("match_notify:%s:%s", lo, hi)
	return m.cache.SetNX(ctx, key, matchNotifyDedupeTTL)
}

// ReindexProfile upserts a profile's embeddings into the vector
// index, skipping profiles without both an offer and a need text
// (spec §4.1 HasIndexableSkills precondition).
func (m *Matcher) ReindexProfile(ctx context.Context, p *model.Profile) error {
	if !p.HasIndexableSkills() {
		return nil
	}
	offerVec, err := m.embedder.Encode(ctx, p.SkillsToOffer)
	if err != nil {
		return fmt.Errorf("embed offer text: %w", err)
	}
	needVec, err := m.embedder.Encode(ctx, p.ServicesNeeded)
	if err != nil {
		return fmt.Errorf("embed need text: %w", err)
	}
	return m.index.Upsert(ctx, model.IndexedProfile{
		UID:      p.UID,
		OfferVec: offerVec,
		NeedVec:  needVec,
		Payload: map[string]any{
			"display_name":    p.DisplayName,
			"skills_to_offer": p.SkillsToOffer,
			"services_needed": p.ServicesNeeded,
		},
	})
}

func stringPayload(p map[string]any, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}
