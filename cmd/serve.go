package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-payment-intake/app/controller"
	paymentgrpc "github.com/vibast-solutions/ms-go-payment-intake/app/grpc"
	"github.com/vibast-solutions/ms-go-payment-intake/app/provider"
	"github.com/vibast-solutions/ms-go-payment-intake/app/service"
	"github.com/vibast-solutions/ms-go-payment-intake/app/types"
	"github.com/vibast-solutions/ms-go-payment-intake/config"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start the HTTP (Echo) payments API and, when enabled, the gRPC health server.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, paymentService, cleanup := mustCreatePaymentService()
	defer cleanup()

	paymentController := controller.NewPaymentController(paymentService)

	e := setupHTTPServer(paymentController, cfg.HTTP)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).WithField("service", cfg.App.ServiceName).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPC.Enabled {
		var lis net.Listener
		grpcSrv, lis = setupGRPCServer(cfg, paymentgrpc.NewServer(paymentService, cfg.App.ServiceName))
		go func() {
			logrus.WithField("addr", lis.Addr().String()).WithField("service", cfg.App.ServiceName).Info("Starting gRPC server")
			if err := grpcSrv.Serve(lis); err != nil {
				logrus.WithError(err).Fatal("gRPC server error")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(paymentController *controller.PaymentController, cfg config.HTTPConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if cfg.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))
	}

	e.GET("/health", paymentController.Health)

	api := e.Group("/api")
	api.POST("/payments", paymentController.CreatePayment)
	api.POST("/payments/external", paymentController.CreateExternalPayment)
	api.GET("/payments/", paymentController.GetPayment)
	api.GET("/payments/:paymentId", paymentController.GetPayment)

	return e
}

// httpErrorHandler renders framework errors (unknown route, oversized body,
// recovered panic) in the same {error, message} shape as handler errors.
func httpErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Unexpected error"
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if code < http.StatusInternalServerError {
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		}
	}

	kind := strings.ReplaceAll(http.StatusText(code), " ", "")
	if code >= http.StatusInternalServerError {
		kind = types.ErrorKindInternalServerError
	}

	if ctx.Request().Method == http.MethodHead {
		err = ctx.NoContent(code)
	} else {
		err = ctx.JSON(code, &types.ErrorResponse{Error: kind, Message: message})
	}
	if err != nil {
		logrus.WithError(err).Warn("Failed to write error response")
	}
}

func setupGRPCServer(cfg *config.Config, healthServer *paymentgrpc.Server) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			paymentgrpc.RecoveryInterceptor(),
			paymentgrpc.RequestIDInterceptor(),
			paymentgrpc.LoggingInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcSrv, healthServer)

	return grpcSrv, lis
}

func mustCreatePaymentService() (*config.Config, *service.PaymentService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	store, cleanup, err := openStorage(context.Background(), cfg.Storage)
	if err != nil {
		logrus.WithError(err).WithField("driver", cfg.Storage.Driver).Fatal("Failed to connect to storage")
	}

	if cfg.Storage.AutoMigrate {
		if err := store.EnsureSchema(context.Background()); err != nil {
			cleanup()
			logrus.WithError(err).Fatal("Failed to ensure storage schema")
		}
	}

	paymentService := newPaymentService(cfg, store)
	return cfg, paymentService, cleanup
}

func newPaymentService(cfg *config.Config, store paymentStore) *service.PaymentService {
	providerRegistry := provider.NewRegistry(
		provider.NewInternalProvider(),
		provider.NewPayPalProvider(provider.PayPalConfig{
			ReferencePrefix:  cfg.PayPal.ReferencePrefix,
			SimulateFailure:  cfg.PayPal.SimulateFailure,
			SimulatedLatency: cfg.PayPal.SimulatedLatency,
		}),
	)

	return service.NewPaymentService(
		store,
		service.NewPrefixOrderDirectory(cfg.Payments.OrderIDPrefix),
		providerRegistry,
	)
}
