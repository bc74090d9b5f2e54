package scanline

import (
	"reflect"
	"testing"
)

func TestThreshold(t *testing.T) {
	row := []byte{0, 0, 0, 255, 255, 255}
	th, ok := Threshold(row)
	if !ok {
		t.Fatal("ok = false for contrasting row")
	}
	// mean 127, midpoint 127.
	if th < 120 || th > 135 {
		t.Errorf("threshold = %d, want near 127", th)
	}
}

func TestThresholdNoContrast(t *testing.T) {
	if _, ok := Threshold([]byte{128, 128, 128, 128}); ok {
		t.Error("ok = true for uniform row")
	}
	if _, ok := Threshold(nil); ok {
		t.Error("ok = true for empty row")
	}
}

func TestBinarizeGlobal(t *testing.T) {
	row := []byte{10, 10, 240, 240, 10, 240}
	bits, ok := BinarizeGlobal(row, nil)
	if !ok {
		t.Fatal("ok = false")
	}
	want := []bool{true, true, false, false, true, false}
	if !reflect.DeepEqual(bits, want) {
		t.Errorf("bits = %v, want %v", bits, want)
	}
}

func TestBinarizeAdaptiveGradient(t *testing.T) {
	// Background climbing from 100 to 200 across the row, with dark
	// bars dropped in. A global threshold would misclassify one end;
	// the sliding window must not.
	const n = 256
	row := make([]byte, n)
	for i := range row {
		row[i] = byte(100 + i*100/n)
	}
	barAt := []int{32, 128, 224}
	for _, x := range barAt {
		for j := 0; j < 4; j++ {
			row[x+j] -= 90
		}
	}

	bits, _ := BinarizeAdaptive(row, nil, nil)
	for _, x := range barAt {
		for j := 0; j < 4; j++ {
			if !bits[x+j] {
				t.Errorf("bar pixel %d classified as space", x+j)
			}
		}
	}
	for _, x := range []int{0, 64, 100, 180, 255} {
		if bits[x] {
			t.Errorf("background pixel %d classified as bar", x)
		}
	}
}

func TestAppendRuns(t *testing.T) {
	bits := []bool{true, true, false, false, false, true}
	runs := AppendRuns(bits, nil)
	want := []Run{
		{Width: 2, Bar: true},
		{Width: 3, Bar: false},
		{Width: 1, Bar: true},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("runs = %v, want %v", runs, want)
	}
}

func TestAppendRunsReusesStorage(t *testing.T) {
	dst := make([]Run, 0, 16)
	runs := AppendRuns([]bool{true, false, true}, dst)
	if &runs[0] != &dst[:1][0] {
		t.Error("AppendRuns allocated despite sufficient capacity")
	}
}

func TestBuffersReverse(t *testing.T) {
	var b Buffers
	runs := []Run{
		{Width: 1, Bar: true},
		{Width: 2, Bar: false},
		{Width: 3, Bar: true},
	}
	rev := b.Reverse(runs)
	want := []Run{
		{Width: 3, Bar: true},
		{Width: 2, Bar: false},
		{Width: 1, Bar: true},
	}
	if !reflect.DeepEqual(rev, want) {
		t.Errorf("rev = %v, want %v", rev, want)
	}
}

func TestBuffersGlobalKeepsAdaptiveRuns(t *testing.T) {
	var b Buffers
	row := []byte{0, 0, 255, 255, 0, 255, 0, 0, 255, 255}

	adaptive := b.ScanAdaptive(row)
	snapshot := append([]Run(nil), adaptive...)

	if _, ok := b.ScanGlobal(row); !ok {
		t.Fatal("ScanGlobal ok = false")
	}
	if !reflect.DeepEqual(adaptive, snapshot) {
		t.Error("ScanGlobal overwrote the adaptive run buffer")
	}
}
