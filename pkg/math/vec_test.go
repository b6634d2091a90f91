package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	got := x.Cross(Up)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}
	l := v.Normalize().Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestVec2Add(t *testing.T) {
	got := Vec2{1, 2}.Add(Vec2{0.5, -4})
	want := Vec2{1.5, -2}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestInverseLerp(t *testing.T) {
	tests := []struct {
		a, b, v float32
		want    float32
	}{
		{0, 10, 5, 0.5},
		{0, 10, -5, 0},
		{0, 10, 50, 1},
		{3, 3, 3, 0},
		{10, 0, 2.5, 0.75},
	}
	for _, tt := range tests {
		if got := InverseLerp(tt.a, tt.b, tt.v); got != tt.want {
			t.Errorf("InverseLerp(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.v, got, tt.want)
		}
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp(2, 4, 0.5); got != 3 {
		t.Errorf("Lerp(2, 4, 0.5) = %v, want 3", got)
	}
}
