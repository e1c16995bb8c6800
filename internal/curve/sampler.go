package curve

import "github.com/Faultbox/bezier-extrude/pkg/math"

// DefaultPrecision is the number of samples per segment used for arc length estimates.
const DefaultPrecision = 100

// degenerateEpsilon is the tangent length below which the look rotation is undefined.
const degenerateEpsilon = 1e-6

// Sampler evaluates the Bezier chain defined by a control point set.
type Sampler struct {
	points *ControlPointSet
}

// NewSampler creates a sampler reading live values from points.
func NewSampler(points *ControlPointSet) *Sampler {
	return &Sampler{points: points}
}

// Bezier returns the four control positions of a segment: the two anchors and
// the handle tips along their forward axes.
func (s *Sampler) Bezier(segment int) [4]math.Vec3 {
	a := s.points.At(segment)
	b := s.points.At(segment + 1)
	return [4]math.Vec3{
		a.Position,
		a.Position.Add(a.Forward().Scale(a.HandleScale.Z)),
		b.Position.Sub(b.Forward().Scale(b.HandleScale.X)),
		b.Position,
	}
}

// SampleFrame returns the oriented frame at parameter t in [0, 1] of a segment.
// Up is the renormalized lerp of the two anchors' up axes.
func (s *Sampler) SampleFrame(t float32, segment int) Frame {
	pts := s.Bezier(segment)

	omt := 1 - t
	omt2 := omt * omt
	t2 := t * t

	position := pts[0].Scale(omt2 * omt).
		Add(pts[1].Scale(3 * omt2 * t)).
		Add(pts[2].Scale(3 * omt * t2)).
		Add(pts[3].Scale(t2 * t))

	// Derivative divided by 3; only the direction matters.
	tangent := pts[0].Scale(-omt2).
		Add(pts[1].Scale(3*omt2 - 2*omt)).
		Add(pts[2].Scale(-3*t2 + 2*t)).
		Add(pts[3].Scale(t2))

	a := s.points.At(segment)
	b := s.points.At(segment + 1)

	if tangent.Length() < degenerateEpsilon {
		tangent = pts[3].Sub(pts[0])
		if tangent.Length() < degenerateEpsilon {
			return Frame{Position: position, Rotation: a.Rotation}
		}
	}

	up := a.Up().Lerp(b.Up(), t).Normalize()
	return Frame{Position: position, Rotation: math.LookRotation(tangent, up)}
}

// SegmentLength approximates a segment's length with a polyline through
// precision uniformly spaced samples (t = j/(precision-1)).
func (s *Sampler) SegmentLength(segment, precision int) float32 {
	if precision < 2 {
		precision = 2
	}

	var length float32
	prev := s.SampleFrame(0, segment).Position
	for j := 1; j < precision; j++ {
		t := float32(j) / float32(precision-1)
		p := s.SampleFrame(t, segment).Position
		length += prev.Distance(p)
		prev = p
	}
	return length
}

// ArcLength sums SegmentLength over every segment.
func (s *Sampler) ArcLength(precision int) float32 {
	var total float32
	for seg := 0; seg < s.points.Segments(); seg++ {
		total += s.SegmentLength(seg, precision)
	}
	return total
}
