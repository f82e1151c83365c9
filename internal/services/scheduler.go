package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/utils"
)

// SchedulerService drives periodic analysis: every tick it analyzes the most
// recently closed hour for each configured platform and scores a batch of
// stale accounts. Platforms run concurrently within a tick; ticks never
// overlap.
type SchedulerService interface {
	Start(ctx context.Context)
	Stop()
}

type schedulerService struct {
	log          *logger.Logger
	coordination CoordinationService
	botScores    BotScoreService

	platforms []string
	interval  time.Duration
	botBatch  int
	stop      chan struct{}
	done      chan struct{}
}

func NewSchedulerService(log *logger.Logger, coordination CoordinationService, botScores BotScoreService) SchedulerService {
	serviceLog := log.With("service", "SchedulerService")

	rawPlatforms := utils.GetEnv("ANALYSIS_PLATFORMS", "bluesky,hackernews", log)
	var platforms []string
	for _, p := range strings.Split(rawPlatforms, ",") {
		if p = strings.TrimSpace(p); p != "" {
			platforms = append(platforms, p)
		}
	}

	intervalMinutes := utils.GetEnvAsInt("ANALYSIS_INTERVAL_MINUTES", 60, log)

	return &schedulerService{
		log:          serviceLog,
		coordination: coordination,
		botScores:    botScores,
		platforms:    platforms,
		interval:     time.Duration(intervalMinutes) * time.Minute,
		botBatch:     utils.GetEnvAsInt("BOT_ANALYSIS_BATCH_SIZE", 50, log),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the scheduler loop in its own goroutine and returns. The
// first tick runs immediately.
func (ss *schedulerService) Start(ctx context.Context) {
	ss.log.Info("Starting analysis scheduler", "platforms", ss.platforms, "interval", ss.interval)
	go func() {
		defer close(ss.done)
		ticker := time.NewTicker(ss.interval)
		defer ticker.Stop()

		ss.runTick(ctx)
		for {
			select {
			case <-ctx.Done():
				ss.log.Info("Scheduler context cancelled")
				return
			case <-ss.stop:
				ss.log.Info("Scheduler stopped")
				return
			case <-ticker.C:
				ss.runTick(ctx)
			}
		}
	}()
}

func (ss *schedulerService) Stop() {
	close(ss.stop)
	<-ss.done
}

func (ss *schedulerService) runTick(ctx context.Context) {
	// Analyze the last fully closed hour.
	hour := time.Now().UTC().Truncate(time.Hour).Add(-time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	for _, platform := range ss.platforms {
		platform := platform
		g.Go(func() error {
			if _, err := ss.coordination.AnalyzeHour(gctx, platform, hour); err != nil {
				ss.log.Error("Scheduled window analysis failed", "platform", platform, "window_start", hour, "error", err)
			}
			if _, err := ss.botScores.AnalyzeStaleAccounts(gctx, platform, ss.botBatch); err != nil {
				ss.log.Error("Scheduled account analysis failed", "platform", platform, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ss.log.Error("Scheduler tick failed", "error", err)
	}
}
