// Package main runs wap-reindex, a standalone reconciliation tool that
// re-derives vector index entries from the document store — the
// source of truth — rather than trusting the index to stay in sync
// (spec §5). Run with -uid to reindex a single profile, or with no
// flags to sweep every profile in the store.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/otitou/wap-backend-go/internal/cache"
	"github.com/otitou/wap-backend-go/internal/config"
	"github.com/otitou/wap-backend-go/internal/embedding"
	"github.com/otitou/wap-backend-go/internal/matching"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/internal/vectorindex"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

const sweepBatchSize = 10000

func main() {
	uid := flag.String("uid", "", "Reindex a single profile by uid; if empty, sweep every profile")
	limit := flag.Int("limit", sweepBatchSize, "Maximum profiles to consider in a full sweep")
	flag.Parse()

	log := logging.New(&logging.Config{Level: "info", TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	if !cfg.Embedding.Enabled() {
		log.Fatal("embedding is not configured: set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY")
	}

	ctx := context.Background()

	st, err := store.Open(store.Config{DSN: cfg.Store.DSN})
	if err != nil {
		log.Fatal("failed to open store", "error", err)
	}
	defer st.Close()

	idx, err := vectorindex.Open(ctx, vectorindex.Config{
		Addr:       cfg.Vector.Addr,
		APIKey:     cfg.Vector.APIKey,
		Collection: cfg.Vector.Collection,
		Dimension:  uint64(cfg.Vector.Dimension),
	})
	if err != nil {
		log.Fatal("failed to open vector index", "error", err)
	}

	emb, err := embedding.New(embedding.Config{
		Endpoint:       cfg.Embedding.Endpoint,
		APIKey:         cfg.Embedding.APIKey,
		APIVersion:     cfg.Embedding.APIVersion,
		DeploymentName: cfg.Embedding.DeploymentName,
		Dimension:      cfg.Embedding.Dimension,
	})
	if err != nil {
		log.Fatal("failed to build embedding client", "error", err)
	}

	c := cache.Open(cache.Config{Addr: cfg.Cache.Addr, Password: cfg.Cache.Password, DB: cfg.Cache.DB})
	matcher := matching.New(st, idx, emb, c)

	if *uid != "" {
		if err := reindexOne(ctx, st, idx, matcher, log, *uid); err != nil {
			log.Fatal("reindex failed", "uid", *uid, "error", err)
		}
		log.Info("reindex complete", "uid", *uid)
		return
	}

	uids, err := st.AllProfileUIDs(*limit)
	if err != nil {
		log.Fatal("failed to list profiles", "error", err)
	}
	log.Info("found profiles to reindex", "count", len(uids))

	var indexed, skipped, failed int
	for i, u := range uids {
		switch status, err := reindexStatus(ctx, st, idx, matcher, u); {
		case err != nil:
			log.Error("failed to reindex profile", "index", i+1, "total", len(uids), "uid", u, "error", err)
			failed++
		case status == "skipped":
			skipped++
		default:
			indexed++
		}
	}
	log.Info("reindexing complete", "indexed", indexed, "skipped", skipped, "failed", failed)
}

// reindexOne reindexes or, if the profile no longer qualifies, removes
// a single profile's vector entry.
func reindexOne(ctx context.Context, st *store.Store, idx *vectorindex.Index, matcher *matching.Matcher, log *logging.Logger, uid string) error {
	_, err := reindexStatus(ctx, st, idx, matcher, uid)
	return err
}

// reindexStatus reindexes uid and reports "indexed" or "skipped"
// (profile has no offer/need text to embed, and any stale vector
// entry for it is deleted instead).
func reindexStatus(ctx context.Context, st *store.Store, idx *vectorindex.Index, matcher *matching.Matcher, uid string) (string, error) {
	p, err := st.GetProfile(uid)
	if err != nil {
		return "", err
	}
	if !p.HasIndexableSkills() {
		if err := idx.Delete(ctx, uid); err != nil {
			return "", err
		}
		return "skipped", nil
	}
	if err := matcher.ReindexProfile(ctx, p); err != nil {
		return "", err
	}
	return "indexed", nil
}
