// Package vectorindex wraps the Qdrant vector database as the HNSW +
// cosine similarity index backing reciprocal skill matching (spec §4.1,
// §4.2). Profiles are indexed under two named vectors, offer_vec and
// need_vec, so a single point can be queried from either direction.
package vectorindex

import (
	"context"
	"crypto/sha1"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/otitou/wap-backend-go/internal/apperr"
	"github.com/otitou/wap-backend-go/internal/model"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

const (
	offerVectorName = "offer_vec"
	needVectorName  = "need_vec"

	// DefaultScoreThreshold is the minimum cosine similarity for a hit
	// to be considered a candidate match (original_source default).
	DefaultScoreThreshold = 0.3
)

// Direction selects which named vector a search is performed against.
type Direction string

const (
	// DirectionOffer searches profiles by their offer_vec.
	DirectionOffer Direction = offerVectorName
	// DirectionNeed searches profiles by their need_vec.
	DirectionNeed Direction = needVectorName
)

// Hit is a single scored search result.
type Hit struct {
	UID     string
	Score   float32
	Payload map[string]any
}

// Config configures the Qdrant connection.
type Config struct {
	Addr       string
	APIKey     string
	Collection string
	Dimension  uint64
}

// Index is the vector index adapter used by internal/matching and internal/search.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
	log        *logging.Logger
}

// Open connects to Qdrant and ensures the profile collection exists
// with both named vectors configured for cosine distance.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	host, port := splitAddr(cfg.Addr)
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, apperr.DependencyUnavailablef(err, "connect to qdrant at %s", cfg.Addr)
	}

	idx := &Index{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		log:        logging.GetDefault().Component("vectorindex"),
	}
	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return apperr.DependencyUnavailablef(err, "check qdrant collection %s", idx.collection)
	}
	if exists {
		return nil
	}
	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			offerVectorName: {Size: idx.dimension, Distance: qdrant.Distance_Cosine},
			needVectorName:  {Size: idx.dimension, Distance: qdrant.Distance_Cosine},
		}),
	})
	if err != nil {
		return apperr.DependencyUnavailablef(err, "create qdrant collection %s", idx.collection)
	}
	idx.log.Info("created collection", "name", idx.collection, "dim", idx.dimension)
	return nil
}

// pointID derives a stable UUID from a user id, so re-upserts replace
// rather than duplicate (original_source uses uuid5 over the username
// for the same reason).
func pointID(uid string) string {
	h := sha1.Sum([]byte(uid))
	return uuid.NewSHA1(uuid.NameSpaceDNS, h[:]).String()
}

// Upsert writes or replaces a profile's two named vectors and payload.
func (idx *Index) Upsert(ctx context.Context, p model.IndexedProfile) error {
	payload := make(map[string]*qdrant.Value, len(p.Payload)+1)
	payload["uid"] = qdrant.NewValueString(p.UID)
	for k, v := range p.Payload {
		payload[k] = toQdrantValue(v)
	}

	point := &qdrant.PointStruct{
		Id: qdrant.NewIDUUID(pointID(p.UID)),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			offerVectorName: qdrant.NewVector(p.OfferVec...),
			needVectorName:  qdrant.NewVector(p.NeedVec...),
		}),
		Payload: payload,
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return apperr.DependencyUnavailablef(err, "upsert profile %s to vector index", p.UID)
	}
	return nil
}

// Search finds the most similar profiles to queryVec along the given
// direction, filtered by score threshold.
func (idx *Index) Search(ctx context.Context, dir Direction, queryVec []float32, limit uint64, scoreThreshold float32) ([]Hit, error) {
	using := string(dir)
	var results []*qdrant.ScoredPoint
	op := func() error {
		r, err := idx.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: idx.collection,
			Query:          qdrant.NewQuery(queryVec...),
			Using:          &using,
			Limit:          &limit,
			ScoreThreshold: &scoreThreshold,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		results = r
		return nil
	}
	// A transient query failure is worth one retry before surfacing
	// it as a dependency-unavailable error (spec §7).
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1)); err != nil {
		return nil, apperr.DependencyUnavailablef(err, "query vector index")
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		payload := make(map[string]any, len(r.Payload))
		uid := ""
		for k, v := range r.Payload {
			if k == "uid" {
				uid = v.GetStringValue()
				continue
			}
			payload[k] = fromQdrantValue(v)
		}
		hits = append(hits, Hit{UID: uid, Score: r.Score, Payload: payload})
	}
	return hits, nil
}

// Ping checks that the profile collection is reachable, for healthz.
func (idx *Index) Ping(ctx context.Context) error {
	_, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return apperr.DependencyUnavailablef(err, "ping qdrant collection %s", idx.collection)
	}
	return nil
}

// Delete removes a profile's point from the index.
func (idx *Index) Delete(ctx context.Context, uid string) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points:         qdrant.NewPointsSelectorIDs([]*qdrant.PointId{qdrant.NewIDUUID(pointID(uid))}),
	})
	if err != nil {
		return apperr.DependencyUnavailablef(err, "delete profile %s from vector index", uid)
	}
	return nil
}

func splitAddr(addr string) (string, int) {
	host, portStr := "localhost", "6334"
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host, portStr = addr[:i], addr[i+1:]
			break
		}
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	if port == 0 {
		port = 6334
	}
	return host, port
}

func toQdrantValue(v any) *qdrant.Value {
	switch t := v.(type) {
	case string:
		return qdrant.NewValueString(t)
	case int:
		return qdrant.NewValueInt(int64(t))
	case int64:
		return qdrant.NewValueInt(t)
	case float64:
		return qdrant.NewValueDouble(t)
	case bool:
		return qdrant.NewValueBool(t)
	default:
		return qdrant.NewValueString(fmt.Sprintf("%v", t))
	}
}

func fromQdrantValue(v *qdrant.Value) any {
	switch v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return v.GetStringValue()
	case *qdrant.Value_IntegerValue:
		return v.GetIntegerValue()
	case *qdrant.Value_DoubleValue:
		return v.GetDoubleValue()
	case *qdrant.Value_BoolValue:
		return v.GetBoolValue()
	default:
		return nil
	}
}
