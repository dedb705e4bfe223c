package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"welltwin-renderer/internal/api"
	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/server"
	"welltwin-renderer/internal/texture"
)

var (
	serveListen string
	serveWatch  bool
	serveAPI    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream live views to browsers over a websocket",
	Long: `Serves the browser viewer at / and /ws?view=surface|voxel. Each
connection gets its own view and render loop; frames are sent as WebP
images and the cube or surface point under the cursor as JSON. With
--watch, local dataset files and the basemap are reloaded when they change.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveListen, "listen", "", "Listen address (default :8080)")
	f.BoolVar(&serveWatch, "watch", false, "Reload local datasets when they change")
	f.BoolVar(&serveAPI, "optimize", true, "Enable path optimization requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	flags.Listen = serveListen
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	textures := texture.NewCache()
	opts := server.Options{
		View:   viewConfig(cfg, textures),
		FPS:    cfg.FPS,
		Logger: logger,
	}
	if serveAPI {
		opts.API = api.NewClient(cfg.APIBaseURL)
	}
	srv := server.New(opts)

	var watchers sync.WaitGroup
	if serveWatch {
		for _, src := range []string{cfg.Surface, cfg.Voxels, cfg.Path, cfg.Basemap} {
			if src == "" || dataset.IsRemote(src) {
				continue
			}
			watchers.Add(1)
			go func(path string) {
				defer watchers.Done()
				err := dataset.Watch(ctx, path, 250*time.Millisecond, logger, func() {
					textures.Invalidate(path)
					srv.Reload(ctx)
				})
				if err != nil {
					logger.Warn("watch failed", zap.String("path", path), zap.Error(err))
				}
			}(src)
		}
	}

	hs := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	logger.Info("serving", zap.String("addr", cfg.Listen), zap.Int("fps", cfg.FPS), zap.Bool("watch", serveWatch))
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", cfg.Listen)

	select {
	case err = <-errc:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Close()
	if serr := hs.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("shutdown", zap.Error(serr))
	}
	stop()
	watchers.Wait()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	return nil
}
