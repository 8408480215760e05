package geometry

import (
	"testing"

	"seishorizon/internal/models"
)

func TestLoadCrop(t *testing.T) {
	vol := NewInMemoryVolume(4, 4, 8)
	data := make([]float64, 4*4*8)
	for idx := range data {
		data[idx] = float64(idx)
	}
	if err := vol.SetAmplitudes(data); err != nil {
		t.Fatalf("SetAmplitudes failed: %v", err)
	}

	loc := models.Location{Start: [3]int{1, 1, 2}, Stop: [3]int{3, 2, 5}}
	crop, err := vol.LoadCrop(loc)
	if err != nil {
		t.Fatalf("LoadCrop failed: %v", err)
	}
	if len(crop) != loc.Size() {
		t.Fatalf("crop length = %d, want %d", len(crop), loc.Size())
	}
	// First sample is voxel (1, 1, 2) of the row-major cube.
	if want := float64((1*4+1)*8 + 2); crop[0] != want {
		t.Fatalf("crop[0] = %v, want %v", crop[0], want)
	}

	bad := models.Location{Start: [3]int{0, 0, 0}, Stop: [3]int{5, 4, 8}}
	if _, err := vol.LoadCrop(bad); err == nil {
		t.Fatal("out-of-bounds crop should fail")
	}
}

func TestLoadCropWithoutAmplitudes(t *testing.T) {
	vol := NewInMemoryVolume(4, 4, 8)
	crop, err := vol.LoadCrop(models.Location{Start: [3]int{0, 0, 0}, Stop: [3]int{2, 2, 2}})
	if err != nil {
		t.Fatalf("LoadCrop failed: %v", err)
	}
	for _, v := range crop {
		if v != 0 {
			t.Fatal("volume without amplitudes should read as zeros")
		}
	}
}

func TestKillTrace(t *testing.T) {
	vol := NewInMemoryVolume(4, 4, 8)
	vol.KillTrace(2, 3)
	if !vol.ZeroTraces().At(2, 3) {
		t.Fatal("killed trace should be marked dead")
	}
	if vol.ZeroTraces().Count() != 1 {
		t.Fatal("exactly one trace should be dead")
	}
}
