package geometry

import (
	"math"
	"math/rand"
	"testing"
)

func TestNormalize(t *testing.T) {
	frame := Frame{Width: 640, Height: 480}

	tests := []struct {
		in, want Point
	}{
		{Point{0, 0}, Point{0, 0}},
		{Point{640, 480}, Point{1, 1}},
		{Point{320, 120}, Point{0.5, 0.25}},
		{Point{-64, 960}, Point{-0.1, 2}},
	}

	for _, tt := range tests {
		got := Normalize(tt.in, frame)
		if math.Abs(got.X-tt.want.X) > 1e-12 || math.Abs(got.Y-tt.want.Y) > 1e-12 {
			t.Errorf("Normalize(%+v, %v) = %+v, want %+v", tt.in, frame, got, tt.want)
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	frames := []Frame{{1, 1}, {640, 480}, {1920, 1080}, {3, 7777}}

	for _, frame := range frames {
		for i := 0; i < 200; i++ {
			p := Point{rng.Float64() * float64(frame.Width), rng.Float64() * float64(frame.Height)}
			back := Denormalize(Normalize(p, frame), frame)
			if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
				t.Fatalf("round trip in %v: %+v -> %+v", frame, p, back)
			}
		}
	}
}

func TestNormalizeAll(t *testing.T) {
	frame := Frame{Width: 200, Height: 100}
	corners := [4]Point{{0, 0}, {200, 0}, {200, 100}, {0, 100}}

	norm := NormalizeAll(corners, frame)
	want := [4]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if norm != want {
		t.Errorf("NormalizeAll: got %+v, want %+v", norm, want)
	}
	if back := DenormalizeAll(norm, frame); back != corners {
		t.Errorf("DenormalizeAll: got %+v, want %+v", back, corners)
	}
}

func TestFrame(t *testing.T) {
	tests := []struct {
		frame Frame
		valid bool
	}{
		{Frame{640, 480}, true},
		{Frame{1, 1}, true},
		{Frame{0, 480}, false},
		{Frame{640, 0}, false},
		{Frame{-1, 10}, false},
	}
	for _, tt := range tests {
		if got := tt.frame.Valid(); got != tt.valid {
			t.Errorf("%v.Valid() = %v, want %v", tt.frame, got, tt.valid)
		}
	}
	if s := (Frame{640, 480}).String(); s != "640x480" {
		t.Errorf("String: got %q, want %q", s, "640x480")
	}
}
