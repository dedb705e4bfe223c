package view

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/loop"
	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/texture"
	"welltwin-renderer/internal/voxel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	threeVoxels = `{"voxels":[
		{"x":-95,"y":35,"z":100,"label":"Shale"},
		{"x":-94,"y":36,"z":200,"label":"Shale"},
		{"x":-93,"y":37,"z":300,"label":"Sand"}]}`
	oneVoxel = `{"voxels":[{"x":-95,"y":35,"z":100,"label":"Sand"}]}`
)

// scriptedFetcher answers each call from a queue of responses. A response
// with a gate blocks until the gate is closed.
type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	replies []reply
	started chan int
}

type reply struct {
	body string
	err  error
	gate chan struct{}
}

func (f *scriptedFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	r := f.replies[min(i, len(f.replies)-1)]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- i
	}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.body), nil
}

func voxelView(f dataset.Fetcher) *View {
	return New(Config{
		Kind:    Voxels,
		Sources: Sources{Voxels: "voxels.json"},
		Fetcher: f,
		Width:   64,
		Height:  48,
	})
}

func TestDisposeMidFetchDropsResult(t *testing.T) {
	gate := make(chan struct{})
	f := &scriptedFetcher{replies: []reply{{body: threeVoxels, gate: gate}}, started: make(chan int, 1)}
	v := voxelView(f)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	<-f.started

	v.Dispose()
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, uint64(0), v.Rebuilds())
	assert.Equal(t, uint64(0), v.Frames())
	s, _ := v.Snapshot()
	assert.True(t, s.IsEmpty())
	assert.NoError(t, v.Err())

	// Later inputs are dropped too.
	v.SetFilter(voxel.FilterRange{Label: "Sand"})
	assert.Equal(t, uint64(0), v.Rebuilds())
}

func TestLatestLoadWins(t *testing.T) {
	gate := make(chan struct{})
	f := &scriptedFetcher{
		replies: []reply{{body: threeVoxels, gate: gate}, {body: oneVoxel}},
		started: make(chan int, 2),
	}
	v := voxelView(f)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	<-f.started

	require.NoError(t, v.Load(context.Background()))
	<-f.started
	s, _ := v.Snapshot()
	assert.Len(t, s.Cubes, 1)

	close(gate)
	require.NoError(t, <-done)
	s, _ = v.Snapshot()
	assert.Len(t, s.Cubes, 1)
	assert.Equal(t, uint64(1), v.Rebuilds())
}

func TestSetFilterUsesLoadedDataset(t *testing.T) {
	v := voxelView(&scriptedFetcher{replies: []reply{{body: threeVoxels}}})
	require.NoError(t, v.Load(context.Background()))

	s, _ := v.Snapshot()
	require.Len(t, s.Cubes, 3)
	sand := s.Cubes[2].Color

	r := voxel.DefaultFilterRange()
	r.Label = "Sand"
	v.SetFilter(r)

	s, _ = v.Snapshot()
	require.Len(t, s.Cubes, 1)
	assert.Equal(t, "Sand", s.Cubes[0].Info.Label)
	assert.Equal(t, mathutil.Vec3{}, s.Cubes[0].Center)
	assert.Equal(t, sand, s.Cubes[0].Color)
	assert.Equal(t, uint64(2), v.Rebuilds())
	assert.Equal(t, []string{"Shale", "Sand"}, v.Labels())
}

func TestFetchErrorLeavesPlaceholder(t *testing.T) {
	v := voxelView(&scriptedFetcher{replies: []reply{{err: errors.New("connection refused")}}})

	err := v.Load(context.Background())
	var fe *dataset.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "voxels.json", fe.Source)

	s, _ := v.Snapshot()
	assert.True(t, s.IsEmpty())
	assert.ErrorAs(t, v.Err(), &fe)
}

func TestInsufficientSurfaceShowsPlaceholder(t *testing.T) {
	v := New(Config{
		Kind:    Surface,
		Sources: Sources{Surface: "surface.json"},
		Fetcher: &scriptedFetcher{replies: []reply{{body: `[{"x":0,"y":0,"z":0,"value":1},{"x":1,"y":1,"z":1,"value":2}]`}}},
	})
	err := v.Load(context.Background())
	require.ErrorIs(t, err, dataset.ErrInsufficientData)
	s, _ := v.Snapshot()
	assert.True(t, s.IsEmpty())
	assert.NotEmpty(t, s.Lines)
}

func TestSurfaceWithPath(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{{body: `[
		{"x":0,"y":0,"z":0,"value":0},
		{"x":1,"y":0,"z":0,"value":10},
		{"x":0,"y":1,"z":0,"value":5}]`}}}
	v := New(Config{Kind: Surface, Sources: Sources{Surface: "surface.json"}, Fetcher: f})
	require.NoError(t, v.Load(context.Background()))

	s, _ := v.Snapshot()
	require.Len(t, s.Surfaces, 1)
	before := len(s.Lines)

	v.SetPath([]dataset.SamplePoint{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
	s, _ = v.Snapshot()
	assert.Len(t, s.Lines, before+2)
}

type recordingCanvas struct {
	mu       sync.Mutex
	frames   []Frame
	released bool
}

func (c *recordingCanvas) Acquire() error { return nil }

func (c *recordingCanvas) Release() {
	c.mu.Lock()
	c.released = true
	c.mu.Unlock()
}

func (c *recordingCanvas) Present(f Frame) error {
	c.mu.Lock()
	c.frames = append(c.frames, f)
	c.mu.Unlock()
	return nil
}

func TestMountRendersAndHovers(t *testing.T) {
	v := voxelView(&scriptedFetcher{replies: []reply{{body: oneVoxel}}})
	require.NoError(t, v.Load(context.Background()))

	sched := loop.NewManualScheduler()
	canvas := &recordingCanvas{}
	require.NoError(t, v.Mount(sched, canvas, nil))
	assert.ErrorIs(t, v.Mount(sched, canvas, nil), ErrMounted)

	sched.Step(time.Now())
	require.Len(t, canvas.frames, 1)
	require.NotNil(t, canvas.frames[0].Image)
	assert.Equal(t, 64, canvas.frames[0].Image.Bounds().Dx())

	// Nothing changed: no frame is presented.
	sched.Step(time.Now())
	assert.Len(t, canvas.frames, 1)

	// Several pointer moves in one frame collapse into one hit test.
	v.Pointer(loop.PointerEvent{X: 1, Y: 1, Inside: true})
	v.Pointer(loop.PointerEvent{X: 32, Y: 24, Inside: true})
	sched.Step(time.Now())
	require.Len(t, canvas.frames, 2)
	f := canvas.frames[1]
	assert.True(t, f.HoverChanged)
	assert.Nil(t, f.Image)
	require.NotNil(t, f.Hover)
	assert.Equal(t, "Sand", f.Hover.Label)
	assert.Equal(t, mathutil.Vec3{-95, 35, 100}, f.Hover.Original)

	v.Pointer(loop.PointerEvent{Inside: false})
	sched.Step(time.Now())
	require.Len(t, canvas.frames, 3)
	assert.Nil(t, canvas.frames[2].Hover)

	v.Dispose()
	assert.True(t, canvas.released)
	assert.Equal(t, 0, sched.Pending())
	assert.ErrorIs(t, v.Mount(sched, canvas, nil), ErrDisposed)
}

func TestRemountResetsState(t *testing.T) {
	v := voxelView(&scriptedFetcher{replies: []reply{{body: threeVoxels}}})
	require.NoError(t, v.Load(context.Background()))

	r := voxel.DefaultFilterRange()
	r.Label = "Sand"
	v.SetFilter(r)

	sched := loop.NewManualScheduler()
	require.NoError(t, v.Mount(sched, &recordingCanvas{}, nil))
	assert.Equal(t, "Sand", v.Filter().Label)
	v.Unmount()

	require.NoError(t, v.Mount(sched, &recordingCanvas{}, nil))
	assert.Equal(t, voxel.ShowAll, v.Filter().Label)
	s, _ := v.Snapshot()
	assert.Len(t, s.Cubes, 3)
	v.Dispose()
}

func TestOrbitMovesCamera(t *testing.T) {
	v := voxelView(&scriptedFetcher{replies: []reply{{body: threeVoxels}}})
	require.NoError(t, v.Load(context.Background()))
	sched := loop.NewManualScheduler()
	canvas := &recordingCanvas{}
	require.NoError(t, v.Mount(sched, canvas, nil))
	defer v.Dispose()

	sched.Step(time.Now())
	_, before := v.Snapshot()
	v.Orbit(0.3, 0)
	sched.Step(time.Now())
	_, after := v.Snapshot()
	assert.NotEqual(t, before.Position, after.Position)
	assert.Len(t, canvas.frames, 2)
}

func TestViewsShareBasemapCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floor.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())

	textures := texture.NewCache()
	var views []*View
	for i := 0; i < 2; i++ {
		v := New(Config{
			Kind:     Voxels,
			Sources:  Sources{Voxels: "voxels.json", Basemap: path},
			Fetcher:  &scriptedFetcher{replies: []reply{{body: threeVoxels}}},
			Textures: textures,
			Width:    64,
			Height:   48,
		})
		require.NoError(t, v.Load(context.Background()))
		views = append(views, v)
	}
	defer func() {
		for _, v := range views {
			v.Dispose()
		}
	}()

	assert.Equal(t, 1, textures.Len())
	s0, _ := views[0].Snapshot()
	s1, _ := views[1].Snapshot()
	require.NotNil(t, s0.Floor)
	require.NotNil(t, s1.Floor)
	assert.Same(t, s0.Floor.Texture, s1.Floor.Texture)
}

func TestMissingBasemapStillLoads(t *testing.T) {
	v := New(Config{
		Kind:    Voxels,
		Sources: Sources{Voxels: "voxels.json", Basemap: filepath.Join(t.TempDir(), "none.png")},
		Fetcher: &scriptedFetcher{replies: []reply{{body: threeVoxels}}},
		Width:   64,
		Height:  48,
	})
	defer v.Dispose()

	require.NoError(t, v.Load(context.Background()))
	s, _ := v.Snapshot()
	assert.Nil(t, s.Floor)
	assert.Len(t, v.Labels(), 2)
}
