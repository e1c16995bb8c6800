package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})

	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformDirection(Vec3{0, 0, 1})

	if got != (Vec3{0, 0, 1}) {
		t.Errorf("TransformDirection: got %v, want (0, 0, 1)", got)
	}
}

func TestTRSMatchesQuatRotate(t *testing.T) {
	rot := QuatFromAxisAngle(Up, float32(math.Pi/2))
	pos := Vec3{5, 0, -2}
	m := TRS(pos, rot)

	p := Vec3{1, 2, 3}
	got := m.TransformPoint(p)
	want := pos.Add(rot.Rotate(p))
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("TRS point: got %v, want %v", got, want)
	}
}
