// Command pulseq runs the in-memory message queue broker with its TCP,
// HTTP and gRPC front ends until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/code19m/errx"
	"github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"

	"github.com/rise-and-shine/pulseq/broker"
	"github.com/rise-and-shine/pulseq/cfgloader"
	"github.com/rise-and-shine/pulseq/config"
	"github.com/rise-and-shine/pulseq/grpc/queuesvc"
	"github.com/rise-and-shine/pulseq/grpc/server/interceptor"
	"github.com/rise-and-shine/pulseq/grpc/server/wrgrpc"
	"github.com/rise-and-shine/pulseq/http/queueapi"
	"github.com/rise-and-shine/pulseq/http/server"
	"github.com/rise-and-shine/pulseq/http/server/middleware"
	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/meta"
	"github.com/rise-and-shine/pulseq/observability/alert"
	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/observability/tracing"
	"github.com/rise-and-shine/pulseq/usecase"
)

func main() {
	cfg := cfgloader.MustLoad[config.Config]()

	meta.SetServiceInfo(cfg.Service.Name, cfg.Service.Version)
	logger.SetGlobal(cfg.Logger)

	if err := run(cfg); err != nil {
		logger.Errorx(err)
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}

func run(cfg config.Config) error {
	log := logger.Named("pulseq")

	shutdownTracer, err := tracing.InitGlobalTracer(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(); err != nil {
			log.Warnx(err)
		}
	}()

	err = alert.SetGlobal(cfg.Alert, cfg.Service.Name, cfg.Service.Version)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()

	queue, err := memqueue.New(append(cfg.Queue.Options(), memqueue.WithMetricsRegistry(registry))...)
	if err != nil {
		return err
	}

	reaper, err := memqueue.NewReaper(queue, cfg.Queue.ReapInterval)
	if err != nil {
		return err
	}

	tcp, err := broker.NewServer(cfg.Broker, queue,
		broker.WithMetricsRegistry(registry),
		broker.WithAlertProvider(alert.Global()),
	)
	if err != nil {
		return err
	}

	set := usecase.NewSet(queue)

	var httpSrv *server.HTTPServer
	if !cfg.HTTP.Disable {
		httpSrv = newHTTPServer(cfg.HTTP, set, registry)
	}

	var grpcSrv *wrgrpc.Server
	if !cfg.GRPC.Disable {
		grpcSrv = newGRPCServer(cfg.GRPC, cfg.Service.Name, set)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return reaper.Start(ctx)
	})

	g.Go(func() error {
		log.With("addr", cfg.Broker.Address()).Info("starting tcp broker")
		return tcp.Start()
	})

	if httpSrv != nil {
		g.Go(func() error {
			log.With("addr", cfg.HTTP.Address()).Info("starting http server")
			return httpSrv.Start()
		})
	}

	if grpcSrv != nil {
		g.Go(func() error {
			log.With("addr", grpcSrv.Addr()).Info("starting grpc server")
			return grpcSrv.Start()
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		var errs []error

		// Front ends first so that no request reaches a closed queue.
		if err := tcp.Stop(); err != nil {
			errs = append(errs, err)
		}
		if httpSrv != nil {
			if err := httpSrv.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		if err := reaper.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := queue.Close(); err != nil {
			errs = append(errs, err)
		}

		if len(errs) > 0 {
			return errx.Wrap(errors.Join(errs...))
		}

		log.Info("stopped")
		return nil
	})

	return errx.Wrap(g.Wait())
}

func newHTTPServer(cfg server.Config, set usecase.Set, registry metrics.Registry) *server.HTTPServer {
	log := logger.Named("http")

	srv := server.NewHTTPServer(cfg, []server.Middleware{
		middleware.NewRecoveryMW(log),
		middleware.NewTracingMW(),
		middleware.NewTimeoutMW(cfg.HandleTimeout),
		middleware.NewMetaInjectMW(),
		middleware.NewAlertingMW(nil),
		middleware.NewLoggerMW(log),
		middleware.NewErrorHandlerMW(cfg.HideErrorDetails),
	})
	srv.RegisterRouter(queueapi.Register(set, registry))

	return srv
}

func newGRPCServer(cfg wrgrpc.Config, serviceName string, set usecase.Set) *wrgrpc.Server {
	log := logger.Named("grpc")

	srv := wrgrpc.NewGRPC(cfg, []wrgrpc.Interceptor{
		interceptor.NewLogger(log),
		interceptor.NewMetaInject(),
		interceptor.NewErrorWrap(serviceName),
		interceptor.NewRecovery(log, nil),
		interceptor.NewTimeout(cfg.UnaryTimeout),
	})
	srv.Register(queuesvc.Register(queuesvc.NewService(set)))

	return srv
}
