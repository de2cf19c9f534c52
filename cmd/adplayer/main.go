package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"adplayer/internal/agent"
	"adplayer/internal/api"
	"adplayer/internal/auth"
	"adplayer/internal/bridge"
	"adplayer/internal/catalog"
	"adplayer/internal/config"
	"adplayer/internal/convlog"
	"adplayer/internal/health"
	"adplayer/internal/logging"
	"adplayer/internal/placement"
	"adplayer/internal/widget"
)

var rootCmd = &cobra.Command{
	Use:   "adplayer",
	Short: "Video ad player with an embedded product assistant",
	Long: `adplayer serves the widget bridge: a surface connects over a websocket,
browses the owner's video slides and asks the product agent questions by
text or voice.

Configuration is read from the environment (and an optional .env file).`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the widget bridge and health endpoints",
	RunE:  runServe,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the configured dependencies and exit",
	RunE:  runHealth,
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <owner>",
	Short: "Mint a surface token for an owner",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(serveCmd, healthCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	st := health.CheckAll(ctx, cfg)
	fmt.Print(st.String())
	if !st.OK {
		return errors.New("unhealthy")
	}
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Auth.SurfaceSecret == "" {
		return errors.New("SURFACE_TOKEN_SECRET not set")
	}
	fmt.Println(auth.Sign(cfg.Auth.SurfaceSecret, args[0], time.Now().Add(tokenTTL)))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log, err := logging.New(cfg.Server.LogLevel, cfg.Server.Dev, cfg.Server.LogFile)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("config", zap.String("summary", cfg.Summary()))

	sink, closeSink, err := newSink(cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()
	turns := convlog.New(sink, config.Ms(cfg.ConvLog.TimeoutMs), log)

	store, err := newPlacementStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := widget.Deps{
		Catalog: catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Origin, config.Ms(cfg.Catalog.TimeoutMs)),
		Agent:   agent.NewHTTPClient(cfg.Agent.BaseURL, config.Ms(cfg.Agent.TimeoutMs)),
		Credentials: agent.Credentials{
			AgentID:        cfg.Agent.AgentID,
			ConsumerKey:    cfg.Agent.ConsumerKey,
			ConsumerSecret: cfg.Agent.ConsumerSecret,
		},
		Turns:        turns,
		Language:     cfg.Speech.Language,
		Placement:    store,
		PlacementKey: cfg.Placement.Key,
		Timing: widget.Timing{
			ComposingMin:        config.Ms(cfg.Widget.ComposingMinMs),
			NoticeTTL:           config.Ms(cfg.Widget.NoticeTTLMs),
			PermissionNoticeTTL: config.Ms(cfg.Widget.PermissionNoticeTTLMs),
		},
	}
	br := bridge.NewServer(cfg, deps, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.LogMiddleware(log, api.NewRouter(api.NewHandlers(cfg), br.HandleWidgetWS)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	gsrv, hsrv := grpc.NewServer(), grpchealth.NewServer()
	healthpb.RegisterHealthServer(gsrv, hsrv)
	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchHealth(ctx, cfg, hsrv, log)
	go func() {
		if err := gsrv.Serve(lis); err != nil {
			log.Error("grpc server", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received; stopping server")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hsrv.Shutdown()
		_ = srv.Shutdown(sctx)
		gsrv.GracefulStop()
	}()

	log.Info("server starting", zap.String("addr", srv.Addr), zap.String("grpc", lis.Addr().String()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}

	fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := turns.Flush(fctx); err != nil {
		log.Warn("conversation log flush", zap.Error(err))
	}
	return nil
}

// watchHealth mirrors CheckAll into the gRPC health service.
func watchHealth(ctx context.Context, cfg config.Config, hsrv *grpchealth.Server, log *zap.Logger) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		st := health.CheckAll(cctx, cfg)
		cancel()
		status := healthpb.HealthCheckResponse_SERVING
		if !st.OK {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			log.Warn("health degraded", zap.String("status", st.String()))
		}
		hsrv.SetServingStatus("", status)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func newSink(cfg config.Config, log *zap.Logger) (convlog.Sink, func(), error) {
	switch cfg.ConvLog.Driver {
	case "nats":
		s, err := convlog.NewNATSSink(cfg.ConvLog.NATSURL, cfg.ConvLog.Subject, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "http", "":
		return convlog.NewHTTPSink(cfg.ConvLog.BaseURL, config.Ms(cfg.ConvLog.TimeoutMs)), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown conversation log driver %q", cfg.ConvLog.Driver)
	}
}

func newPlacementStore(cfg config.Config) (placement.Store, error) {
	switch placement.StoreType(cfg.Placement.Driver) {
	case placement.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Placement.RedisAddr})
		return placement.NewStore(placement.StoreTypeRedis, placement.WithRedisClient(client))
	default:
		return placement.NewStore(placement.StoreType(cfg.Placement.Driver))
	}
}
