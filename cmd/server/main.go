package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"barter/api/grpcserver"
	"barter/config"
	"barter/domain/community"
	"barter/infra/indexdb"
	"barter/infra/kafka"
	entrywal "barter/infra/wal/entry"
	exitwal "barter/infra/wal/exit"
	"barter/jobs/broadcaster"
	"barter/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(c config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc.Level = lvl
	return zc.Build()
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Directory ----------------

	dir, err := community.LoadYAML(cfg.DirectoryFile)
	if err != nil {
		return fmt.Errorf("community directory: %w", err)
	}
	log.Info("directory loaded", zap.String("file", cfg.DirectoryFile), zap.Int("communities", len(dir.All())))

	// ---------------- Entry WAL ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:             cfg.EntryWALDir,
		SegmentSize:     cfg.SegmentSize,
		SegmentDuration: cfg.SegmentDuration,
		SyncEveryWrite:  cfg.SyncEveryWrite,
	})
	if err != nil {
		return fmt.Errorf("entry WAL init: %w", err)
	}
	defer entryWAL.Close()

	// ---------------- Exit WAL ----------------

	outbox, err := exitwal.Open(cfg.OutboxDir)
	if err != nil {
		return fmt.Errorf("exit WAL init: %w", err)
	}
	defer outbox.Close()

	// ---------------- Trade index ----------------

	index, err := indexdb.OpenSQLite(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("trade index init: %w", err)
	}
	defer func() {
		if n := index.Dropped(); n > 0 {
			log.Warn("trade index dropped writes", zap.Uint64("dropped", n))
		}
		_ = index.Close()
	}()

	// ---------------- Service + recovery ----------------

	svc := service.NewExchangeService(service.Options{
		Directory: dir,
		Params:    cfg.Exchange.Params(),
		EntryWAL:  entryWAL,
		Outbox:    outbox,
		Index:     index,
		Logger:    log,
	})
	if err := svc.Recover(cfg.SnapshotDir, cfg.EntryWALDir); err != nil {
		return fmt.Errorf("recovery: %w", err)
	}

	// ---------------- Background Jobs ----------------

	svc.StartSnapshotJob(ctx, cfg.SnapshotDir, cfg.SnapshotInterval)
	if cfg.MatchInterval > 0 {
		svc.StartMatchJob(ctx, cfg.MatchInterval)
	}

	if cfg.Kafka.Enabled() {
		pub, err := newPublisher(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		bc := broadcaster.New(outbox, pub, broadcaster.Config{
			Interval:   cfg.Kafka.Interval,
			MaxRetries: cfg.Kafka.MaxRetries,
		}, log)
		bcDone := make(chan struct{})
		go func() {
			bc.Run(ctx)
			close(bcDone)
		}()
		defer func() {
			<-bcDone
			_ = bc.Close()
		}()
	} else {
		log.Info("kafka disabled; trades stay in the outbox")
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(log.Named("grpc"))))
	grpcserver.Register(grpcSrv, grpcserver.NewServer(svc))

	serveErr := make(chan error, 1)
	go func() {
		log.Info("barter exchange running", zap.String("addr", cfg.ListenAddr))
		serveErr <- grpcSrv.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		grpcSrv.GracefulStop()
	}
	stop()
	svc.Wait()

	// Final snapshot so the next start replays nothing.
	if err := svc.Snapshot(cfg.SnapshotDir); err != nil {
		log.Error("final snapshot failed", zap.Error(err))
	}
	return nil
}

func newPublisher(k config.Kafka) (broadcaster.Publisher, error) {
	switch k.Client {
	case "kafka-go":
		return kafka.NewProducer(k.Brokers, k.Topic), nil
	default:
		return broadcaster.NewSaramaPublisher(k.Brokers, k.Topic)
	}
}
