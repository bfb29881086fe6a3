package app

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/narration"
	"github.com/takahashiJe/navpack-orchestrator/internal/clients/routing"
	"github.com/takahashiJe/navpack-orchestrator/internal/clients/spatial"
	"github.com/takahashiJe/navpack-orchestrator/internal/clients/synth"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/audio"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/corridor"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/narrate"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/route"
	"github.com/takahashiJe/navpack-orchestrator/internal/platform/config"
	"github.com/takahashiJe/navpack-orchestrator/internal/platform/packstore"
	"github.com/takahashiJe/navpack-orchestrator/internal/platform/ratelimit"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

// Clients bundles every outbound collaborator dependency (§6): the three
// upstream HTTP engines plus the read-only spatial-store queries, each
// wrapped in the narrow interface its core component actually needs.
type Clients struct {
	Routing    *routing.Client
	Narration  *narration.Client
	Synth      *synth.Client
	Spots      *spatial.SpotStore
	AccessPts  *spatial.AccessPointStore
	POIs       *spatial.POIStore
	Semaphore  *ratelimit.Semaphore
	PackStore  *packstore.Store
}

// shortTimeout / longTimeout implement §5's per-call timeout budgets:
// routing and POI queries are short (<=30s); narration and synthesis are
// long (narration <=3min, synthesis <=5min total batch).
const (
	shortTimeout     = 30 * time.Second
	narrationTimeout = 3 * time.Minute
	synthTimeout     = 5 * time.Minute
)

func wireClients(log *logger.Logger, db *gorm.DB, cfg config.Config) (Clients, error) {
	c := Clients{
		Routing:   routing.NewClient(log, cfg.RoutingBase, shortTimeout, cfg.OutboundMaxRetries),
		Narration: narration.NewClient(log, cfg.NarrationBase, narrationTimeout, cfg.OutboundMaxRetries),
		Synth:     synth.NewClient(log, cfg.SynthBase, synthTimeout, cfg.OutboundMaxRetries),
		Spots:     spatial.NewSpotStore(db),
		AccessPts: spatial.NewAccessPointStore(db),
		POIs:      spatial.NewPOIStore(db),
	}

	if cfg.RedisAddr != "" {
		sem, err := ratelimit.NewSemaphore(log, cfg.RedisAddr, "navpack:external_concurrency", cfg.ExternalConcurrencyCap)
		if err != nil {
			return Clients{}, err
		}
		c.Semaphore = sem
	}

	var mirror packstore.Mirror
	if cfg.GCSPackBucket != "" {
		m, err := packstore.NewGCSMirror(context.Background(), log, cfg.GCSPackBucket)
		if err != nil {
			log.Warn("gcs mirror disabled; continuing with local-only pack storage", "error", err.Error())
		} else {
			mirror = m
		}
	}
	c.PackStore = packstore.NewStore(log, cfg.PacksRoot, mirror)

	return c, nil
}

// Core bundles the four in-process pipeline components (C2..C5's non-HTTP
// half) built from Clients.
type Core struct {
	RouteBuilder    *route.Builder
	CorridorFinder  *corridor.Finder
	NarratePlanner  *narrate.Planner
	AudioDispatcher *audio.Dispatcher
}

func wireCore(log *logger.Logger, clients Clients, cfg config.Config) Core {
	return Core{
		RouteBuilder:    route.NewBuilder(log, clients.Routing, clients.AccessPts, cfg.CarArrivalToleranceM),
		CorridorFinder:  corridor.NewFinder(clients.POIs),
		NarratePlanner:  narrate.NewPlanner(clients.Narration),
		AudioDispatcher: audio.NewDispatcher(clients.Synth, semaphoreOrNil(clients.Semaphore), cfg.AudioBatchSize),
	}
}

// semaphoreOrNil returns a nil audio.Limiter interface value (not a
// non-nil interface wrapping a nil pointer) when no Redis semaphore was
// configured, so the dispatcher's nil-check at call time works correctly.
func semaphoreOrNil(s *ratelimit.Semaphore) audio.Limiter {
	if s == nil {
		return nil
	}
	return s
}
