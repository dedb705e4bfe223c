// Package view owns one mounted visualization: its datasets, widget state,
// composed scene and render loop. Dataset loads that finish after the view
// is disposed, or after a newer load started, are dropped.
package view

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/geometry"
	"welltwin-renderer/internal/loop"
	"welltwin-renderer/internal/palette"
	"welltwin-renderer/internal/raster"
	"welltwin-renderer/internal/scene"
	"welltwin-renderer/internal/texture"
	"welltwin-renderer/internal/voxel"
)

var (
	ErrDisposed = errors.New("view: disposed")
	ErrMounted  = errors.New("view: already mounted")
)

// Sources names the datasets a view loads. Each is a local path or an
// http(s) URL.
type Sources struct {
	Surface string
	Voxels  string
	Path    string // optional well path drawn over the surface
	Basemap string // optional floor image for the voxel view
}

type Config struct {
	Kind    Kind
	Sources Sources
	Fetcher dataset.Fetcher

	Width       int
	Height      int
	Supersample int

	Geometry geometry.Options
	Filter   voxel.FilterRange
	// Textures resolves Sources.Basemap. Views sharing a cache decode each
	// basemap once.
	Textures *texture.Cache

	Logger *zap.Logger
}

// Frame is what a view hands to its canvas once per rendered frame.
type Frame struct {
	Seq uint64
	// Image is nil when nothing visible changed since the last frame.
	Image        *image.NRGBA
	Hover        *scene.Hit
	HoverChanged bool
}

// Canvas is the presentation target of a mounted view.
type Canvas interface {
	loop.Surface
	Present(Frame) error
}

type View struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	disposed bool
	gen      uint64
	mounts   int
	loop     *loop.Loop
	canvas   Canvas

	samples []dataset.SamplePoint
	voxels  []dataset.Voxel
	path    []dataset.SamplePoint
	basemap *image.NRGBA

	state  State
	scn    *scene.Scene
	cam    *scene.Camera
	framed bool
	dirty  bool
	err    error

	pal palette.Palette

	rebuilds atomic.Uint64
	frames   atomic.Uint64
}

// New returns an unmounted view showing an empty placeholder scene.
func New(cfg Config) *View {
	if cfg.Fetcher == nil {
		cfg.Fetcher = dataset.SourceFetcher{}
	}
	if cfg.Textures == nil {
		cfg.Textures = texture.NewCache()
	}
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Supersample <= 0 {
		cfg.Supersample = 1
	}
	if cfg.Geometry == (geometry.Options{}) {
		cfg.Geometry = geometry.DefaultOptions()
	}
	if cfg.Filter == (voxel.FilterRange{}) {
		cfg.Filter = voxel.DefaultFilterRange()
	}
	v := &View{cfg: cfg, log: cfg.Logger}
	if v.log == nil {
		v.log = zap.NewNop()
	}
	v.log = v.log.With(zap.Stringer("view", cfg.Kind))
	v.state.Reset(cfg.Filter)
	v.compose()
	return v
}

// Load fetches the view's datasets concurrently and rebuilds the scene
// from them. A fetch failure leaves an empty scene and is returned as a
// *dataset.FetchError. Results are discarded without error when the view
// was disposed or a newer Load started in the meantime.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return nil
	}
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	var (
		samples []dataset.SamplePoint
		voxels  []dataset.Voxel
		path    []dataset.SamplePoint
	)
	g, gctx := errgroup.WithContext(ctx)
	switch v.cfg.Kind {
	case Surface:
		g.Go(func() error {
			var err error
			samples, err = dataset.FetchSamples(gctx, v.cfg.Fetcher, v.cfg.Sources.Surface)
			return err
		})
		if v.cfg.Sources.Path != "" {
			g.Go(func() error {
				var err error
				path, err = dataset.FetchSamples(gctx, v.cfg.Fetcher, v.cfg.Sources.Path)
				return err
			})
		}
	case Voxels:
		g.Go(func() error {
			var err error
			voxels, err = dataset.FetchVoxels(gctx, v.cfg.Fetcher, v.cfg.Sources.Voxels)
			return err
		})
	}
	err := g.Wait()

	var basemap *image.NRGBA
	if err == nil && v.cfg.Kind == Voxels && v.cfg.Sources.Basemap != "" {
		img, berr := v.cfg.Textures.Get(v.cfg.Sources.Basemap)
		if berr != nil {
			v.log.Warn("basemap unavailable, rendering without floor texture", zap.Error(berr))
		} else {
			basemap = img
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed || gen != v.gen {
		v.log.Debug("dropping stale load", zap.Uint64("gen", gen), zap.Bool("disposed", v.disposed))
		return nil
	}
	if err != nil {
		v.log.Warn("dataset fetch failed", zap.Error(err))
		v.samples, v.voxels, v.path, v.basemap = nil, nil, nil, nil
		v.rebuild()
		v.err = err
		return err
	}
	v.samples, v.voxels, v.path, v.basemap = samples, voxels, path, basemap
	v.log.Info("dataset loaded",
		zap.Int("samples", len(samples)),
		zap.Int("voxels", len(voxels)),
		zap.Int("path", len(path)))
	v.rebuild()
	return v.err
}

// SetFilter replaces the voxel filter and rebuilds from the latest
// dataset.
func (v *View) SetFilter(r voxel.FilterRange) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	v.state.Filter = r
	v.rebuild()
}

// SetPath replaces the overlaid path and rebuilds.
func (v *View) SetPath(path []dataset.SamplePoint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return
	}
	v.path = path
	v.rebuild()
}

// Orbit queues a camera rotation, applied with damping over the next
// frames.
func (v *View) Orbit(dTheta, dPhi float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Controls != nil {
		v.state.Controls.Rotate(dTheta, dPhi)
	}
}

// Zoom queues a distance scale; factor > 1 zooms out.
func (v *View) Zoom(factor float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Controls != nil {
		v.state.Controls.Zoom(factor)
	}
}

// Pointer records the latest cursor position. Events between frames are
// coalesced: only the newest one is hit-tested.
func (v *View) Pointer(ev loop.PointerEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.pointer = ev
	v.state.pointerDirty = true
}

// rebuild recomposes the scene from the current datasets and state.
// Caller holds v.mu.
func (v *View) rebuild() {
	v.err = nil
	v.compose()
	v.rebuilds.Add(1)
}

func (v *View) compose() {
	aspect := float64(v.cfg.Width) / float64(v.cfg.Height)
	var (
		s   *scene.Scene
		cam *scene.Camera
	)
	switch v.cfg.Kind {
	case Surface:
		var mesh *geometry.Mesh
		if len(v.samples) > 0 {
			m, err := geometry.Build(v.samples, v.cfg.Geometry)
			if err != nil {
				v.err = fmt.Errorf("view: build surface: %w", err)
				v.log.Warn("surface build failed, showing placeholder", zap.Error(err))
			} else {
				mesh = m
			}
		}
		s, cam = scene.ComposeSurface(mesh, v.path, scene.SurfaceOptions{
			Aspect:     aspect,
			PathOffset: v.cfg.Geometry.Offset,
		})
	case Voxels:
		labels := voxel.Labels(v.voxels)
		if key := palette.KeyOf(labels); key != v.pal.Key() || v.pal.Len() == 0 {
			v.pal = palette.New(labels)
		}
		var floor *scene.Floor
		if v.basemap != nil {
			floor = &scene.Floor{Corners: scene.FloorQuad(voxel.BoxSize, -0.5), Texture: v.basemap}
		}
		s, cam = scene.ComposeVoxels(voxel.Apply(v.voxels, v.state.Filter), v.pal, scene.VoxelOptions{
			Aspect:  aspect,
			Basemap: floor,
		})
	}

	v.scn = s
	v.dirty = true
	v.state.pointerDirty = true
	if v.framed && v.cam != nil {
		return
	}
	v.cam = cam
	v.state.Controls = scene.NewOrbitControls(cam)
	v.framed = !s.IsEmpty()
}

// Mount starts the render loop on sched, presenting into canvas and
// listening for pointer events. Mounting again after Unmount resets the
// widget state.
func (v *View) Mount(sched loop.Scheduler, canvas Canvas, events loop.Events) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return ErrDisposed
	}
	if v.loop != nil {
		v.mu.Unlock()
		return ErrMounted
	}
	if v.mounts > 0 {
		v.state.Reset(v.cfg.Filter)
		v.framed = false
		v.rebuild()
	}
	v.mounts++
	v.canvas = canvas
	v.dirty = true
	v.mu.Unlock()

	l, err := loop.Start(sched, canvas, events, v.frame, loop.Options{
		OnPointer: v.Pointer,
		Logger:    v.log,
	})
	if err != nil {
		return fmt.Errorf("view: mount: %w", err)
	}

	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		l.Dispose()
		return ErrDisposed
	}
	v.loop = l
	v.mu.Unlock()
	return nil
}

// frame is the loop's per-frame callback: advance the orbit controls,
// resolve the latest pointer into a hover hit and render if anything
// changed.
func (v *View) frame(time.Time) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return loop.ErrStop
	}

	moved := false
	if v.state.Controls != nil {
		moved = v.state.Controls.Update(v.cam)
	}

	hoverChanged := false
	if v.state.pointerDirty || moved {
		v.state.pointerDirty = false
		var hover *scene.Hit
		if p := v.state.pointer; p.Inside {
			x, y := scene.PixelToNDC(p.X, p.Y, v.cfg.Width, v.cfg.Height)
			if hit, ok := scene.Pick(v.scn, v.cam.Ray(x, y)); ok {
				hover = &hit
			}
		}
		hoverChanged = !sameHit(hover, v.state.hover)
		v.state.hover = hover
	}

	f := Frame{Hover: v.state.hover, HoverChanged: hoverChanged}
	if moved || v.dirty {
		f.Image = raster.Snapshot(v.scn, v.cam, v.cfg.Width, v.cfg.Height, v.cfg.Supersample)
		v.dirty = false
	}
	canvas := v.canvas
	v.mu.Unlock()

	if f.Image == nil && !f.HoverChanged {
		return nil
	}
	f.Seq = v.frames.Add(1)
	if canvas == nil {
		return nil
	}
	return canvas.Present(f)
}

func sameHit(a, b *scene.Hit) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.HitInfo == b.HitInfo
}

// Unmount stops the render loop and keeps the datasets so the view can be
// mounted again.
func (v *View) Unmount() {
	v.mu.Lock()
	l := v.loop
	v.loop = nil
	v.canvas = nil
	v.mu.Unlock()
	if l != nil {
		l.Dispose()
	}
}

// Dispose stops the loop and drops every later update. It is idempotent.
func (v *View) Dispose() {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.disposed = true
	l := v.loop
	v.loop = nil
	v.canvas = nil
	v.mu.Unlock()
	if l != nil {
		l.Dispose()
	}
}

// Snapshot returns the current scene and a copy of its camera for
// offscreen rendering.
func (v *View) Snapshot() (*scene.Scene, scene.Camera) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scn, *v.cam
}

// Err returns the last fetch or build failure, cleared by a successful
// rebuild.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// LoopErr returns the error that stopped the render loop, if any.
func (v *View) LoopErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loop == nil {
		return nil
	}
	return v.loop.Err()
}

// Filter returns the active voxel filter.
func (v *View) Filter() voxel.FilterRange {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Filter
}

// Labels returns the distinct labels of the loaded voxels.
func (v *View) Labels() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return voxel.Labels(v.voxels)
}

func (v *View) Kind() Kind { return v.cfg.Kind }

// Rebuilds counts scene rebuilds since New.
func (v *View) Rebuilds() uint64 { return v.rebuilds.Load() }

// Frames counts frames handed to the canvas.
func (v *View) Frames() uint64 { return v.frames.Load() }
