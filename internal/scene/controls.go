package scene

import (
	"math"

	"welltwin-renderer/internal/mathutil"
)

// OrbitControls rotates and zooms a camera around its target. Input adds
// to pending deltas; Update applies a fraction of them each frame so the
// motion eases out and comes to rest.
type OrbitControls struct {
	Target  mathutil.Vec3
	Damping float64 // fraction of the pending delta applied per frame

	MinDistance float64
	MaxDistance float64

	sph         mathutil.Spherical
	dTheta      float64
	dPhi        float64
	zoom        float64 // pending log-scale distance change
	restEpsilon float64
}

// NewOrbitControls starts the controls from the camera's current pose.
func NewOrbitControls(cam *Camera) *OrbitControls {
	oc := &OrbitControls{
		Target:      cam.Target,
		Damping:     0.05,
		MinDistance: 1e-3,
		MaxDistance: math.Inf(1),
		restEpsilon: 1e-6,
	}
	oc.sph = mathutil.ToSpherical(cam.Position.Sub(cam.Target))
	return oc
}

// Rotate queues an orbit by the given azimuth and polar angles (radians).
func (oc *OrbitControls) Rotate(dTheta, dPhi float64) {
	oc.dTheta += dTheta
	oc.dPhi += dPhi
}

// Zoom queues a distance scale; factor > 1 moves away from the target.
func (oc *OrbitControls) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	oc.zoom += math.Log(factor)
}

// Moving reports whether pending deltas remain.
func (oc *OrbitControls) Moving() bool {
	e := oc.restEpsilon
	return math.Abs(oc.dTheta) > e || math.Abs(oc.dPhi) > e || math.Abs(oc.zoom) > e
}

// Update advances the damped motion by one frame and writes the pose into
// cam. It returns whether the camera moved.
func (oc *OrbitControls) Update(cam *Camera) bool {
	moving := oc.Moving()
	if moving {
		k := oc.Damping
		if k <= 0 || k > 1 {
			k = 1
		}
		oc.sph.Theta += oc.dTheta * k
		oc.sph.Phi += oc.dPhi * k
		oc.sph.Radius *= math.Exp(oc.zoom * k)
		oc.dTheta *= 1 - k
		oc.dPhi *= 1 - k
		oc.zoom *= 1 - k
		if !oc.Moving() {
			oc.dTheta, oc.dPhi, oc.zoom = 0, 0, 0
		}
	}

	const eps = 1e-6
	oc.sph.Phi = math.Max(eps, math.Min(math.Pi-eps, oc.sph.Phi))
	oc.sph.Radius = math.Max(oc.MinDistance, math.Min(oc.MaxDistance, oc.sph.Radius))

	cam.Target = oc.Target
	cam.Position = oc.Target.Add(oc.sph.Vec3())
	return moving
}

// Distance returns the current camera distance from the target.
func (oc *OrbitControls) Distance() float64 {
	return oc.sph.Radius
}
