package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Ararat25/go-reactive/config"
	"github.com/Ararat25/go-reactive/internal/logStream"
	"github.com/Ararat25/go-reactive/reactive"
	"github.com/Ararat25/go-reactive/subpub"
)

func main() {
	run()
}

func run() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "go-reactive",
	})

	conf, err := config.NewConfig(config.FetchConfigPath())
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		conf = config.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sch := reactive.NewScheduler()

	// Конвейер: тики -> миллисекунды -> троттлинг -> дебаунс.
	ticks := reactive.Ticker(conf.Pipeline.TickInterval.Std(), sch)
	millis := reactive.Map(ticks, func(t time.Time) int64 { return t.UnixMilli() })
	throttled := reactive.Throttle(millis, rate.NewLimiter(rate.Limit(conf.Pipeline.ThrottleRate), conf.Pipeline.ThrottleBurst))
	debounced := reactive.Debounce(throttled, conf.Pipeline.DebounceInterval.Std(), sch)
	pipeline := logStream.LoggingPublisher("pipeline", logger, debounced)

	// Последнее значение конвейера зеркалируется в сабджект состояния.
	state := reactive.NewCurrentValueSubject[int64](0)
	pipelineSub := reactive.OnValue(pipeline, state.Send)
	defer pipelineSub.Cancel()

	// Состояние уходит в шину; отдельный подписчик шины его логирует.
	bus, err := subpub.NewSubPubWithMetrics(prometheus.DefaultRegisterer, subpub.WithQueueSize(conf.Bus.QueueSize))
	if err != nil {
		logger.Fatal("failed to create bus", "error", err)
	}

	busSub, err := bus.Subscribe(conf.Bus.Subject, func(msg subpub.Message) {
		logger.Info("bus message", "subject", msg.Subject, "id", msg.ID, "data", msg.Data)
	})
	if err != nil {
		logger.Fatal("failed to subscribe to bus", "error", err)
	}
	defer busSub.Unsubscribe()

	// История последних значений состояния с ограничением по размеру и возрасту.
	history := reactive.NewReplaySubject[int64](conf.Pipeline.ReplayCapacity, conf.Pipeline.ReplayWindow.Std())
	historySub := reactive.OnValue[int64](state, history.Send)
	defer historySub.Cancel()

	stateSub := reactive.OnValue[int64](state, func(v int64) {
		if err := bus.Publish(conf.Bus.Subject, v); err != nil {
			logger.Error("failed to publish state", "error", err)
		}
	})
	defer stateSub.Cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()

		pipelineSub.Cancel()
		state.SendComplete()

		var tail []int64
		reactive.OnValue[int64](history, func(v int64) { tail = append(tail, v) })
		history.SendComplete()
		logger.Info("recent state values", "count", len(tail), "values", tail)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return bus.Close(shutdownCtx)
	})

	logger.Info("pipeline started",
		"tick", conf.Pipeline.TickInterval.Std(),
		"debounce", conf.Pipeline.DebounceInterval.Std(),
		"subject", conf.Bus.Subject,
	)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
