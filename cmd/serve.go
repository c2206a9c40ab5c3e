package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wifi_provisioner/internal/config"
	"wifi_provisioner/internal/handlers"
	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/metrics"
	"wifi_provisioner/internal/platform"
	"wifi_provisioner/internal/repository"
	"wifi_provisioner/internal/repository/db"
	"wifi_provisioner/internal/runloop"
	"wifi_provisioner/internal/server"
	"wifi_provisioner/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the boot sequence and serve the device",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	bootStart := time.Now()

	cfg, err := config.Load(viper.New(), configPath)
	if err != nil {
		return err
	}
	httpPort, err := strconv.Atoi(cfg.HTTPPort)
	if err != nil {
		return fmt.Errorf("http.port %q: %w", cfg.HTTPPort, err)
	}
	controlPort, err := strconv.Atoi(cfg.ControlPort)
	if err != nil {
		return fmt.Errorf("control.port %q: %w", cfg.ControlPort, err)
	}

	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	log.Infow("booting", "http_port", httpPort, "control_port", controlPort, "wifi_driver", cfg.WiFi.Driver)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, repos := openStorage(cfg.DBPath, log)
	var closeOnce sync.Once
	closeDB := func() {
		closeOnce.Do(func() {
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		})
	}
	defer closeDB()

	clock := platform.SystemClock{}
	m := metrics.New()
	loop := runloop.New(log)
	loop.OnPanic(func(any) { m.LoopJobFailures.Inc() })

	restarter := platform.NewProcessRestarter(cfg.Restart.Mode == "reboot", func(reason string) {
		log.Infow("restarting", "reason", reason)
		closeDB()
		_ = log.Sync()
	})

	var advertiser platform.Advertiser
	if cfg.MDNS.Enabled {
		advertiser = platform.ZeroconfAdvertiser{}
	}

	comps := service.NewComponents(service.Deps{
		Repos:      repos,
		Radio:      newRadio(cfg, clock),
		Indicator:  newIndicator(cfg),
		Sensors:    platform.NewHostSensors(),
		Slot:       platform.NewFileSlot(cfg.OTA.SlotDir),
		Restarter:  restarter,
		Advertiser: advertiser,
		Clock:      clock,
		Metrics:    m,
		Log:        log,
		Post:       loop.Post,
	}, service.Options{
		ConnectTimeout: cfg.WiFi.ConnectTimeout,
		Negotiator: service.NegotiatorConfig{
			PollInterval: cfg.WiFi.PollInterval,
			APSSID:       cfg.WiFi.APSSID,
			APPass:       cfg.WiFi.APPass,
		},
		Controller: service.ControllerConfig{
			Debounce:    cfg.Control.Debounce,
			RebootDelay: cfg.Control.RebootDelay,
		},
		Hostname: cfg.MDNS.Hostname,
		HTTPPort: httpPort,
	})

	state, stopMDNS := comps.Boot(ctx)
	defer stopMDNS()
	log.Infow("boot_negotiated", "state", state, "address", comps.Device.Address())

	loop.Every(cfg.Status.Period, func(time.Time) { comps.Status.Tick(ctx) })
	loop.Every(cfg.Status.IndicatorPoll, func(time.Time) { comps.Status.PollIndicator() })
	loop.OnIteration(func() { comps.Status.PollIndicator() })
	go loop.Run(ctx)

	h := handlers.NewHandler(comps.Service(), loop, log, handlers.Options{
		SaveRebootDelay: cfg.SaveRebootDelay,
		ControlPort:     controlPort,
		Metrics:         m.Handler(),
	})
	webSrv := server.New("web")
	controlSrv := server.New("control")
	errc := make(chan error, 2)
	runServer(webSrv, server.Addr(httpPort), h.InitRoutes(), errc)
	runServer(controlSrv, server.Addr(controlPort), h.InitControlRoutes(), errc)

	for _, s := range []*server.Server{webSrv, controlSrv} {
		select {
		case <-s.Ready():
		case err := <-errc:
			return err
		case <-ctx.Done():
			return nil
		}
	}
	comps.AnnounceReady(uptime(ctx, bootStart))

	select {
	case <-ctx.Done():
	case err = <-errc:
		log.Errorw("server_failed", "err", err)
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range []*server.Server{webSrv, controlSrv} {
		if serr := s.Shutdown(shutdownCtx); serr != nil {
			log.Errorw("server_forced_shutdown", "server", s.Name(), "err", serr)
		}
	}
	return err
}

// openStorage falls back to a store that fails every call, so the device
// still boots into the portal when the database cannot be opened.
func openStorage(path string, log *logger.Logger) (*sql.DB, *repository.Repository) {
	sqlDB, err := db.InitDB(path)
	if err != nil {
		log.Errorw("storage_unavailable", "path", path, "err", err)
		return nil, repository.NewUnavailableRepository()
	}
	return sqlDB, repository.NewRepository(sqlDB)
}

func newRadio(cfg *config.Config, clock platform.Clock) platform.Radio {
	if cfg.WiFi.Driver == "sim" {
		return platform.NewSimRadio(cfg.WiFi.SimNetworks, cfg.WiFi.SimJoinDelay, clock)
	}
	return platform.NewNmcliRadio(cfg.WiFi.Interface)
}

func newIndicator(cfg *config.Config) platform.Indicator {
	if cfg.Indicator.Driver == "memory" {
		return &platform.MemoryIndicator{}
	}
	return platform.NewSysfsLED(cfg.Indicator.LED, cfg.Indicator.ActiveLow)
}

func runServer(s *server.Server, addr string, h http.Handler, errc chan<- error) {
	go func() {
		if err := s.Run(addr, h); err != nil {
			errc <- fmt.Errorf("%s server on %s: %w", s.Name(), addr, err)
		}
	}()
}

// uptime prefers the host's uptime; the process start time is the fallback.
func uptime(ctx context.Context, bootStart time.Time) time.Duration {
	if d, err := platform.NewHostSensors().Uptime(ctx); err == nil {
		return d
	}
	return time.Since(bootStart)
}
