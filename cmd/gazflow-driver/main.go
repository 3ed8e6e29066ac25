// README: Driver-side Location Reporter; samples a position source and publishes presence to the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	"gazflow/internal/modules/location"
	"gazflow/internal/types"
)

type Config struct {
	BaseURL  string
	Token    string
	Interval time.Duration
	Route    string
}

func main() {
	cfg := loadConfig()
	if cfg.Token == "" {
		log.Fatal("GAZFLOW_DRIVER_TOKEN (or -token) is required")
	}
	points, err := parseRoute(cfg.Route)
	if err != nil {
		log.Fatalf("route: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := &retryingPublisher{
		next:    location.NewHTTPPublisher(cfg.BaseURL, cfg.Token, &http.Client{Timeout: 10 * time.Second}),
		backoff: func() retry.Backoff { return retry.WithMaxRetries(4, retry.NewExponential(500*time.Millisecond)) },
	}
	reporter := location.NewReporter(location.NewRouteSource(points...), publisher, cfg.Interval)

	log.Printf("driver online, reporting every %s to %s", cfg.Interval, cfg.BaseURL)
	if err := reporter.SetOnline(ctx, true); err != nil {
		log.Fatalf("driver online: %v", err)
	}
	<-ctx.Done()

	clearCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := reporter.SetOnline(clearCtx, false); err != nil {
		log.Printf("driver offline: %v", err)
		os.Exit(1)
	}
	log.Printf("driver offline")
}

// retryingPublisher retries the offline write with backoff. Going offline is
// never inferred from missing samples, so that write has to land. Online
// samples go straight through; a missed one is replaced by the next tick.
type retryingPublisher struct {
	next    location.PresencePublisher
	backoff func() retry.Backoff
}

func (p *retryingPublisher) PublishPresence(ctx context.Context, online bool, pos *types.Point) error {
	if online {
		return p.next.PublishPresence(ctx, online, pos)
	}
	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		if err := p.next.PublishPresence(ctx, false, nil); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("GAZFLOW_API_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.Token, "token", os.Getenv("GAZFLOW_DRIVER_TOKEN"), "Firebase ID token of the driver")
	flag.DurationVar(&cfg.Interval, "interval", envOrDefaultDuration("GAZFLOW_REPORT_INTERVAL", location.DefaultInterval), "Sampling interval")
	flag.StringVar(&cfg.Route, "route", envOrDefault("GAZFLOW_DRIVER_ROUTE", "5.3599,-4.0083"), "Positions to walk: lat,lng;lat,lng;...")
	flag.Parse()
	cfg.Interval = location.ClampInterval(cfg.Interval)
	return cfg
}

// parseRoute reads "lat,lng;lat,lng". At least one point is required.
func parseRoute(raw string) ([]types.Point, error) {
	var out []types.Point
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		latRaw, lngRaw, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("bad point %q", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude in %q: %w", part, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude in %q: %w", part, err)
		}
		out = append(out, types.Point{Lat: lat, Lng: lng})
	}
	if len(out) == 0 {
		return nil, errors.New("no points")
	}
	return out, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
