package interceptor

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/code19m/errx"
	"google.golang.org/grpc"

	"github.com/rise-and-shine/pulseq/grpc/server/wrgrpc"
	"github.com/rise-and-shine/pulseq/meta"
	"github.com/rise-and-shine/pulseq/observability/alert"
	"github.com/rise-and-shine/pulseq/observability/logger"
)

const (
	codePanicRecovered = "PANIC_RECOVERED"
	alertSendTimeout   = 3 * time.Second
)

// NewRecovery creates an interceptor that recovers from panics in gRPC handlers.
// It captures the panic, logs it with the stack trace, reports it to provider
// and converts it into an internal error that can be safely returned to clients.
// A nil provider selects the global one.
func NewRecovery(log logger.Logger, provider alert.Provider) wrgrpc.Interceptor {
	if provider == nil {
		provider = alert.Global()
	}
	log = log.Named("grpc.recovery")

	return wrgrpc.Interceptor{
		Priority: 900,
		Handler: func(
			ctx context.Context,
			req any,
			info *grpc.UnaryServerInfo,
			handler grpc.UnaryHandler,
		) (resp any, err error) {
			defer func() {
				if r := recover(); r != nil {
					stackTrace := make([]byte, 4096) // 4KB
					stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]
					panicValue := fmt.Sprintf("%v", r)

					log.WithContext(ctx).
						With("stack_trace", string(stackTrace), "panic_value", panicValue).
						Error("panic recovered")

					go sendPanicAlert(ctx, log, provider, info.FullMethod, panicValue, string(stackTrace))

					err = errx.New("panic recovered at recovery interceptor",
						errx.WithCode(codePanicRecovered),
						errx.WithDetails(errx.D{"panic_value": panicValue}),
					)
				}
			}()

			return handler(ctx, req)
		},
	}
}

func sendPanicAlert(ctx context.Context, log logger.Logger, provider alert.Provider, method, panicValue, stackTrace string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertSendTimeout)
	defer cancel()

	details := map[string]string{"stack_trace": stackTrace}
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		details[string(k)] = v
	}

	if err := provider.SendError(ctx, codePanicRecovered, panicValue, method, details); err != nil {
		log.With("alert_send_error", err.Error()).Warn("failed to send alert")
	}
}
