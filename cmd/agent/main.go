package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/config"
	"github.com/grlkrash/grlkrashai-go/internal/content"
	"github.com/grlkrash/grlkrashai-go/internal/engagement"
	"github.com/grlkrash/grlkrashai-go/internal/market"
	"github.com/grlkrash/grlkrashai-go/internal/metrics"
	"github.com/grlkrash/grlkrashai-go/internal/milestone"
	"github.com/grlkrash/grlkrashai-go/internal/publisher"
	"github.com/grlkrash/grlkrashai-go/internal/pulse"
	"github.com/grlkrash/grlkrashai-go/internal/ratelimit"
	"github.com/grlkrash/grlkrashai-go/internal/social"
	"github.com/grlkrash/grlkrashai-go/internal/store"
	"github.com/grlkrash/grlkrashai-go/internal/streams"
	"github.com/grlkrash/grlkrashai-go/internal/util"
)

// trackedPost remembers what went out on twitter so the feedback loop can
// score it later.
type trackedPost struct {
	post    social.Post
	tweetID string
	sentAt  time.Time
}

func main() {
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Fatal().Err(err).Msg("load secrets")
	}

	db, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer db.Close()

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	platforms, twitter := buildPlatforms(cfg, secrets, log)
	if len(platforms) == 0 {
		log.Warn().Msg("no publish platforms configured, running observe-only")
	}

	points := make(chan pulse.Point, 1024)

	feed := market.NewFeed(cfg.Market.Provider, cfg.Market.Pairs, util.Named(log, "market"),
		market.WithPollInterval(time.Duration(cfg.Market.PollInterval)*time.Millisecond),
		market.WithDexScreenerConfig(cfg.Market.DexScreener.BaseURL, cfg.Market.DexScreener.DefaultChain),
		market.WithStreamURL(cfg.Market.StreamURL),
	)
	go func() {
		if err := feed.Run(ctx, points); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("market feed stopped")
			cancel()
		}
	}()

	if providers := buildStatsProviders(cfg, secrets, twitter); len(providers) > 0 {
		poller := streams.NewPoller(util.Named(log, "streams"), providers,
			time.Duration(cfg.Streams.PollInterval)*time.Millisecond, promoSymbol(cfg))
		go func() {
			if err := poller.Run(ctx, points); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("streams poller stopped")
			}
		}()
	}

	rules := make([]milestone.Rule, 0, len(cfg.Milestones))
	for _, r := range cfg.Milestones {
		rules = append(rules, milestone.Rule{
			Name:       r.Name,
			Metric:     r.Metric,
			Symbol:     r.Symbol,
			Threshold:  r.Threshold,
			Hysteresis: r.Hysteresis,
		})
	}
	tracker := milestone.NewTracker(util.Named(log, "milestone"), rules, db)

	gen := content.NewGenerator(content.GeneratorConfig{
		APIKey:      secrets.OpenAIKey,
		Model:       cfg.Content.Model,
		Persona:     cfg.Content.Persona,
		Variants:    cfg.Content.Variants,
		MaxTokens:   cfg.Content.MaxTokens,
		Temperature: cfg.Content.Temperature,
	}, log)
	opt := content.NewOptimizer(cfg.Content.LearningRate)

	limiter := ratelimit.NewLimiter(ratelimit.Caps{
		HourlyPerPlatform: cfg.Limits.HourlyPerPlatform,
		DailyPerPlatform:  cfg.Limits.DailyPerPlatform,
		MinGap:            time.Duration(cfg.Limits.MinGapSeconds) * time.Second,
		PerMinute:         cfg.Limits.PerMinute,
		Burst:             cfg.Limits.Burst,
	})
	var recorder publisher.Recorder
	if cfg.RecorderPath != "" {
		jsonl, err := publisher.NewJSONLRecorder(cfg.RecorderPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open recorder")
		}
		defer jsonl.Close()
		recorder = jsonl
	}
	exec := publisher.NewExecutor(log, limiter, recorder, db)

	var trackMu sync.Mutex
	var tracked []trackedPost

	if cfg.Engagement.Enabled && twitter != nil {
		startEngagement(ctx, cfg, log, db, twitter, gen, exec, limiter)
	}

	if twitter != nil && cfg.Content.FeedbackMins > 0 {
		go feedbackLoop(ctx, log, twitter, opt, &trackMu, &tracked,
			time.Duration(cfg.Content.FeedbackMins)*time.Minute)
	}

	log.Info().Str("env", cfg.App.Env).Msg("agent started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case p := <-points:
			for _, trig := range tracker.OnPoint(p) {
				announce(ctx, log, gen, opt, exec, platforms, trig, &trackMu, &tracked)
			}
		}
	}
}

// announce turns one milestone trigger into the best-scoring promo variant and
// fans it out.
func announce(ctx context.Context, log zerolog.Logger, gen *content.Generator,
	opt *content.Optimizer, exec *publisher.Executor, platforms []social.Platform,
	trig pulse.Trigger, trackMu *sync.Mutex, tracked *[]trackedPost) {

	variants, err := gen.Promo(ctx, trig)
	if err != nil || len(variants) == 0 {
		log.Warn().Err(err).Str("milestone", trig.Milestone).Msg("no promo variants")
		return
	}
	candidates := make([]social.Post, 0, len(variants))
	for _, text := range variants {
		candidates = append(candidates, social.Post{
			ID:   uuid.NewString(),
			Kind: "promo",
			Text: text,
			Tags: []string{"MORE", trig.Milestone},
		})
	}
	now := time.Now()
	best := opt.Best("twitter", candidates, now)

	for _, res := range exec.Submit(ctx, best, platforms) {
		if res.Receipt != nil && res.Platform == "twitter" {
			trackMu.Lock()
			*tracked = append(*tracked, trackedPost{post: best, tweetID: res.Receipt.ExternalID, sentAt: now})
			if len(*tracked) > 64 {
				*tracked = (*tracked)[len(*tracked)-64:]
			}
			trackMu.Unlock()
		}
	}
}

// feedbackLoop periodically scores past tweets and folds the observed
// engagement back into the optimizer weights.
func feedbackLoop(ctx context.Context, log zerolog.Logger, twitter *social.Twitter,
	opt *content.Optimizer, trackMu *sync.Mutex, tracked *[]trackedPost, every time.Duration) {

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		trackMu.Lock()
		batch := make([]trackedPost, len(*tracked))
		copy(batch, *tracked)
		*tracked = (*tracked)[:0]
		trackMu.Unlock()

		for _, tp := range batch {
			score, err := twitter.TweetEngagement(ctx, tp.tweetID)
			if err != nil {
				log.Warn().Err(err).Str("tweet", tp.tweetID).Msg("engagement lookup failed")
				continue
			}
			opt.Update("twitter", content.Features(tp.post, tp.sentAt), score)
			log.Debug().Str("tweet", tp.tweetID).Float64("score", score).Msg("optimizer updated")
		}
	}
}

// startEngagement runs mention discovery and the reply worker.
func startEngagement(ctx context.Context, cfg *config.Config, log zerolog.Logger,
	db *store.Store, twitter *social.Twitter, gen *content.Generator,
	exec *publisher.Executor, limiter *ratelimit.Limiter) {

	queue := engagement.NewQueue(cfg.Engagement.QueueSize)
	disc := engagement.NewDiscovery(log, []social.Searcher{twitter}, queue, db, cfg.Engagement)
	if disc == nil {
		return
	}
	disc.Start(ctx)

	rewards, err := engagement.NewPoints(db)
	if err != nil {
		log.Error().Err(err).Msg("points hydrate failed, replies disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			m, ok := queue.Pop()
			if !ok {
				continue
			}
			text, err := gen.Reply(ctx, m)
			if err != nil || text == "" {
				continue
			}
			reply := social.Post{ID: uuid.NewString(), Kind: "reply", Text: text}
			for _, res := range exec.Submit(ctx, reply, []social.Platform{twitter}) {
				if res.Receipt == nil {
					continue
				}
				if m.Author == "" {
					// Search responses without the author expansion still get
					// a reply, just no reward attribution.
					continue
				}
				if err := rewards.Award(m.Author, cfg.Engagement.PointsPerReply); err != nil {
					log.Warn().Err(err).Str("user", m.Author).Msg("award failed")
				}
			}
		}
	}()
}

// buildPlatforms assembles the publish targets named in config for which
// credentials are present. The twitter client is returned separately because
// discovery and the feedback loop need its extra surface.
func buildPlatforms(cfg *config.Config, secrets *config.Secrets, log zerolog.Logger) ([]social.Platform, *social.Twitter) {
	var out []social.Platform
	var twitter *social.Twitter
	for _, name := range cfg.Social.Platforms {
		switch name {
		case "twitter":
			if secrets.TwitterBearer == "" {
				log.Warn().Str("platform", name).Msg("missing credentials, skipping")
				continue
			}
			twitter = social.NewTwitter(secrets.TwitterBearer, cfg.Social.TwitterUsername, "")
			out = append(out, twitter)
		case "discord":
			if secrets.DiscordWebhookURL == "" {
				log.Warn().Str("platform", name).Msg("missing credentials, skipping")
				continue
			}
			out = append(out, social.NewDiscord(secrets.DiscordWebhookURL))
		case "telegram":
			if secrets.TelegramToken == "" {
				log.Warn().Str("platform", name).Msg("missing credentials, skipping")
				continue
			}
			tg, err := social.NewTelegram(secrets.TelegramToken, cfg.Social.TelegramChannel, "")
			if err != nil {
				log.Warn().Err(err).Str("platform", name).Msg("client init failed, skipping")
				continue
			}
			out = append(out, tg)
		case "instagram":
			if secrets.InstagramToken == "" {
				log.Warn().Str("platform", name).Msg("missing credentials, skipping")
				continue
			}
			out = append(out, social.NewInstagram(secrets.InstagramToken, cfg.Social.InstagramAccountID, ""))
		case "tiktok":
			if secrets.TikTokToken == "" {
				log.Warn().Str("platform", name).Msg("missing credentials, skipping")
				continue
			}
			out = append(out, social.NewTikTok(secrets.TikTokToken, ""))
		default:
			log.Warn().Str("platform", name).Msg("unknown platform in config")
		}
	}
	return out, twitter
}

// buildStatsProviders assembles the creator stats pollers with credentials.
func buildStatsProviders(cfg *config.Config, secrets *config.Secrets, twitter *social.Twitter) []social.StatsProvider {
	var out []social.StatsProvider
	if twitter != nil {
		out = append(out, twitter)
	}
	if secrets.SpotifyClientID != "" && cfg.Streams.SpotifyArtistID != "" {
		out = append(out, social.NewSpotify(secrets.SpotifyClientID, secrets.SpotifyClientSecret,
			cfg.Streams.SpotifyArtistID, "", ""))
	}
	if cfg.Streams.DeezerArtistID != "" {
		out = append(out, social.NewDeezer(cfg.Streams.DeezerArtistID, ""))
	}
	if secrets.YouTubeKey != "" && cfg.Streams.YouTubeChannelID != "" {
		out = append(out, social.NewYouTube(secrets.YouTubeKey, cfg.Streams.YouTubeChannelID, ""))
	}
	return out
}

// promoSymbol labels creator-stats points with the first configured pair's
// alias so milestone rules can match on it.
func promoSymbol(cfg *config.Config) string {
	if len(cfg.Market.Pairs) == 0 {
		return "MORE"
	}
	alias := cfg.Market.Pairs[0]
	for i, r := range alias {
		if r == '@' {
			return alias[:i]
		}
	}
	return alias
}
