package robot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJointCalibration_ToDegrees(t *testing.T) {
	cal := JointCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		raw      int
		expected int
	}{
		{1000, 0},   // min -> 0
		{3000, 180}, // max -> 180
		{2000, 90},  // mid -> center
		{1500, 45},
		{2500, 135},
		{500, 0},    // below range clamps
		{3500, 180}, // above range clamps
	}

	for _, tt := range tests {
		got := cal.ToDegrees(tt.raw)
		if got != tt.expected {
			t.Errorf("ToDegrees(%d) = %d, want %d", tt.raw, got, tt.expected)
		}
	}
}

func TestJointCalibration_ToRaw(t *testing.T) {
	cal := JointCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		deg      int
		expected int
	}{
		{0, 1000},
		{180, 3000},
		{90, 2000},
		{45, 1500},
		{-20, 1000}, // clamped
		{200, 3000}, // clamped
	}

	for _, tt := range tests {
		got := cal.ToRaw(tt.deg)
		if got != tt.expected {
			t.Errorf("ToRaw(%d) = %d, want %d", tt.deg, got, tt.expected)
		}
	}
}

func TestJointCalibration_ZeroRange(t *testing.T) {
	cal := JointCalibration{RangeMin: 2048, RangeMax: 2048}
	if got := cal.ToDegrees(2048); got != CenterAngle {
		t.Errorf("ToDegrees on empty range = %d, want %d", got, CenterAngle)
	}
	if got := cal.ToRaw(120); got != 2048 {
		t.Errorf("ToRaw on empty range = %d, want 2048", got)
	}
}

func TestJointCalibration_RoundTrip(t *testing.T) {
	cal := JointCalibration{
		RangeMin: 823,
		RangeMax: 3540,
	}

	for deg := 0; deg <= 180; deg++ {
		back := cal.ToDegrees(cal.ToRaw(deg))
		if back != deg {
			t.Errorf("Round-trip failed: %d -> %d -> %d", deg, cal.ToRaw(deg), back)
		}
	}
}

func TestCalibration_ServoIDs(t *testing.T) {
	cal := Calibration{
		Gripper:  JointCalibration{ID: 5},
		Base:     JointCalibration{ID: 1},
		Wrist:    JointCalibration{ID: 4},
		Shoulder: JointCalibration{ID: 2},
		Elbow:    JointCalibration{ID: 3},
	}

	ids := cal.ServoIDs()
	expected := []int{1, 2, 3, 4, 5}

	if len(ids) != len(expected) {
		t.Fatalf("ServoIDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("ServoIDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}

func TestCalibration_ByID(t *testing.T) {
	cal := Calibration{
		Base:    JointCalibration{ID: 1, RangeMin: 100, RangeMax: 200},
		Gripper: JointCalibration{ID: 5, RangeMin: 300, RangeMax: 400},
	}

	name, jc, ok := cal.ByID(1)
	if !ok {
		t.Fatal("ByID(1) returned false")
	}
	if name != Base {
		t.Errorf("ByID(1) returned name %s, want base", name)
	}
	if jc.RangeMin != 100 {
		t.Errorf("ByID(1) returned wrong calibration: %+v", jc)
	}

	_, _, ok = cal.ByID(99)
	if ok {
		t.Error("ByID(99) should return false")
	}
}

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	data := `{"base": {"id": 1, "range_min": 10, "range_max": 20}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cal, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if cal[Base].RangeMax != 20 {
		t.Errorf("base range_max = %d, want 20", cal[Base].RangeMax)
	}

	if _, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
