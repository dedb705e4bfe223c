// Package batch renders turntable snapshots of composed scenes to WebP
// files with a worker pool.
package batch

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"go.uber.org/zap"

	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/raster"
	"welltwin-renderer/internal/scene"
)

// Config holds the shared settings for a batch run.
type Config struct {
	OutputDir   string
	Width       int
	Height      int
	Supersample int
	Workers     int
	Logger      *zap.Logger

	// ProgressEvery is the progress log interval; zero means 2s.
	ProgressEvery time.Duration
}

// Job is one frame: a scene seen from one camera pose.
type Job struct {
	View    string
	Frame   int
	Azimuth float64 // radians, for the manifest
	Scene   *scene.Scene
	Camera  scene.Camera
}

// Result holds the outcome of rendering one job.
type Result struct {
	View    string
	Frame   int
	Azimuth float64
	Image   string // path relative to the output dir
	Success bool
	Error   string
}

// Turntable returns frames jobs orbiting cam around its target at evenly
// spaced azimuths, starting from the camera's current pose.
func Turntable(view string, s *scene.Scene, cam scene.Camera, frames int) []Job {
	if frames < 1 {
		frames = 1
	}
	start := mathutil.ToSpherical(cam.Position.Sub(cam.Target))
	jobs := make([]Job, frames)
	for i := range jobs {
		sph := start
		d := 2 * math.Pi * float64(i) / float64(frames)
		sph.Theta += d
		c := cam
		c.Position = cam.Target.Add(sph.Vec3())
		jobs[i] = Job{View: view, Frame: i, Azimuth: d, Scene: s, Camera: c}
	}
	return jobs
}

// Run renders all jobs using a worker pool. Jobs not started before ctx is
// cancelled are reported with the context error.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	every := cfg.ProgressEvery
	if every <= 0 {
		every = 2 * time.Second
	}

	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	var reporter sync.WaitGroup
	reporter.Add(1)
	go func() {
		defer reporter.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("progress", zap.Int64("done", p), zap.Int("total", total), zap.Float64("frames_per_sec", rate))
				}
			}
		}
	}()

	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = failed(jobs[idx], err.Error())
				} else {
					results[idx] = renderJob(cfg, jobs[idx])
				}
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)
	reporter.Wait()

	log.Info("batch finished", zap.Int("total", total), zap.Duration("elapsed", time.Since(start)))
	return results
}

func failed(job Job, msg string) Result {
	return Result{View: job.View, Frame: job.Frame, Azimuth: job.Azimuth, Error: msg}
}

func renderJob(cfg Config, job Job) Result {
	if job.Scene == nil {
		return failed(job, "no scene")
	}
	cam := job.Camera
	img := raster.Snapshot(job.Scene, &cam, cfg.Width, cfg.Height, cfg.Supersample)

	rel := filepath.Join(job.View, fmt.Sprintf("%d.webp", job.Frame))
	outPath := filepath.Join(cfg.OutputDir, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return failed(job, err.Error())
	}

	f, err := os.Create(outPath)
	if err != nil {
		return failed(job, err.Error())
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return failed(job, fmt.Sprintf("WebP encode: %v", err))
	}

	return Result{
		View:    job.View,
		Frame:   job.Frame,
		Azimuth: job.Azimuth,
		Image:   filepath.ToSlash(rel),
		Success: true,
	}
}
