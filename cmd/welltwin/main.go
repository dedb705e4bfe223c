package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"welltwin-renderer/internal/config"
	"welltwin-renderer/internal/logging"
	"welltwin-renderer/internal/texture"
	"welltwin-renderer/internal/view"
)

var (
	// Global flags
	configFile string
	verbose    bool
	flags      config.Flags

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "welltwin",
	Short: "Headless renderer for well surface and voxel datasets",
	Long: `welltwin turns well sample points into triangulated surfaces and labeled
voxel sets into filtered cube scenes, then renders them with a software
rasterizer: to WebP turntables (render), to browsers over a websocket
(serve), or as dataset statistics (inspect).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to a JSON or YAML config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	pf.StringVar(&flags.BaseDir, "data", "", "Base directory for relative dataset paths")
	pf.StringVar(&flags.Surface, "surface", "", "Surface sample points (path or URL)")
	pf.StringVar(&flags.Voxels, "voxels", "", "Voxel dataset (path or URL)")
	pf.StringVar(&flags.Path, "path", "", "Optional well path drawn over the surface")
	pf.StringVar(&flags.Basemap, "basemap", "", "PNG, JPEG or TGA image for the voxel floor")
	pf.IntVar(&flags.Width, "width", 0, "Frame width in pixels (default 800)")
	pf.IntVar(&flags.Height, "height", 0, "Frame height in pixels (default 600)")

	rootCmd.AddCommand(renderCmd, serveCmd, inspectCmd)
}

// loadConfig reads --config when given and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return cfg, err
		}
	}
	cfg.Resolve(flags)
	return cfg, nil
}

// viewConfig builds the view template shared by render and serve.
func viewConfig(cfg config.Config, textures *texture.Cache) view.Config {
	return view.Config{
		Sources: view.Sources{
			Surface: cfg.Surface,
			Voxels:  cfg.Voxels,
			Path:    cfg.Path,
			Basemap: cfg.Basemap,
		},
		Width:       cfg.Width,
		Height:      cfg.Height,
		Supersample: cfg.Supersample,
		Filter:      cfg.Filter,
		Textures:    textures,
		Logger:      logger,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
