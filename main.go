package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/cpu"
	"github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"github.com/xhhuango/json"

	"github.com/bcdannyboy/kalshiq/calibration"
	"github.com/bcdannyboy/kalshiq/config"
	"github.com/bcdannyboy/kalshiq/engine"
	"github.com/bcdannyboy/kalshiq/feed"
	"github.com/bcdannyboy/kalshiq/models"
	"github.com/bcdannyboy/kalshiq/probability"
	"github.com/bcdannyboy/kalshiq/report"
)

const syntheticSeed = 7

func main() {
	_ = godotenv.Load() // optional .env overlay

	cfg, err := config.Load("config.yaml")
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	stopMonitor := make(chan struct{})
	go monitorCPUUsage(log, stopMonitor)
	defer close(stopMonitor)

	minute, hourly, daily := loadCandles(cfg, log)
	calib := calibration.Calibrate(minute, hourly, daily)
	os.Stdout.WriteString(report.FormatCalibration(calib))

	spot := minute[len(minute)-1].Close
	market := buildMarket(cfg, spot)

	seed := cfg.BaseSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	cache := engine.NewResultCache(cfg.CacheCap, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	ctrl := engine.NewController(cache, log)

	jobID, err := ctrl.Submit(engine.SimRequest{
		Market:           market,
		Spot:             spot,
		TimeToCloseHours: cfg.TimeToCloseHours,
		Calibration:      calib,
		Overrides:        models.DefaultOverrides(),
		Config: probability.Config{
			Paths:               cfg.Paths,
			Batches:             cfg.Batches,
			Threads:             cfg.Threads,
			Parallel:            cfg.Threads > 1,
			BaseSeed:            seed,
			CaptureDistribution: true,
			SamplePaths:         cfg.SamplePaths,
			SamplePoints:        cfg.SamplePoints,
		},
	})
	if err != nil {
		log.WithError(err).Fatal("submitting job")
	}

	events, err := ctrl.Events(jobID)
	if err != nil {
		log.WithError(err).Fatal("opening event stream")
	}

	progress := mpb.New(mpb.WithWidth(64))
	bar := progress.AddBar(int64(cfg.Batches),
		mpb.PrependDecorators(decor.Name("simulating "), decor.CountersNoUnit("%d/%d")),
		mpb.AppendDecorators(decor.Percentage(), decor.Name(" "), decor.Elapsed(decor.ET_STYLE_GO)),
	)

	var result *models.SimResult
	for ev := range events {
		switch ev.Type {
		case engine.EventProgress:
			bar.Increment()
			log.WithFields(logrus.Fields{
				"n": ev.Progress.CumulativeN,
				"p": ev.Progress.RunningP,
			}).Debug("batch complete")
		case engine.EventComplete:
			result = ev.Result
		case engine.EventCancelled:
			log.Warn("job cancelled")
		case engine.EventError:
			log.WithError(ev.Err).Fatal("simulation failed")
		}
	}
	bar.SetTotal(int64(cfg.Batches), true)
	progress.Wait()

	if result == nil {
		log.Fatal("no result produced")
	}
	os.Stdout.WriteString(report.FormatResult(result))

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("marshalling result")
	}
	if err := os.WriteFile(cfg.OutputFile, out, 0644); err != nil {
		log.WithError(err).Fatal("writing result file")
	}
	log.WithField("file", cfg.OutputFile).Info("result written")
}

// loadCandles prefers configured files, then the live feed, then seeded
// synthetic bars so the demo always runs.
func loadCandles(cfg config.Config, log *logrus.Logger) (minute, hourly, daily []models.Candle) {
	if cfg.Candles.Minute != "" {
		var err error
		minute, err = feed.LoadCandleFile(cfg.Candles.Minute)
		if err == nil {
			hourly, err = feed.LoadCandleFile(cfg.Candles.Hourly)
		}
		if err == nil {
			daily, err = feed.LoadCandleFile(cfg.Candles.Daily)
		}
		if err == nil {
			return minute, hourly, daily
		}
		log.WithError(err).Warn("loading candle files, falling back")
	}

	if cfg.FetchCandles {
		client := feed.NewClient(cfg.Product)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		minute, err = client.GetCandles(ctx, 60, 60)
		if err == nil {
			hourly, err = client.GetCandles(ctx, 3600, 24)
		}
		if err == nil {
			daily, err = client.GetCandles(ctx, 86400, 7)
		}
		if err == nil {
			return minute, hourly, daily
		}
		log.WithError(err).Warn("fetching candles, falling back to synthetic")
	}

	now := time.Now().UnixMilli()
	minute = feed.SyntheticCandles(syntheticSeed, 60, now-60*60_000, 60_000, 60000, 0.0008)
	hourly = feed.SyntheticCandles(syntheticSeed+1, 24, now-24*3_600_000, 3_600_000, 60000, 0.005)
	daily = feed.SyntheticCandles(syntheticSeed+2, 7, now-7*86_400_000, 86_400_000, 60000, 0.02)
	return minute, hourly, daily
}

func buildMarket(cfg config.Config, spot float64) models.Market {
	market := models.Market{
		Ticker:    cfg.Ticker,
		CloseTime: time.Now().Add(time.Duration(cfg.TimeToCloseHours * float64(time.Hour))),
	}
	switch {
	case cfg.Strike > 0:
		strike := cfg.Strike
		market.Strike = &strike
	case cfg.RangeLow > 0 && cfg.RangeHigh > cfg.RangeLow:
		lo, hi := cfg.RangeLow, cfg.RangeHigh
		market.RangeLow = &lo
		market.RangeHigh = &hi
	default:
		strike := spot // price the at-the-money contract by default
		market.Strike = &strike
	}
	return market
}

// monitorCPUUsage logs process-wide CPU load while the simulation runs.
func monitorCPUUsage(log *logrus.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if percentage, err := cpu.Percent(time.Second, false); err == nil && len(percentage) > 0 {
				log.WithField("cpu_pct", percentage[0]).Debug("cpu usage")
			}
		}
	}
}
