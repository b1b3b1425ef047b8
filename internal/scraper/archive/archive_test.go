package archive

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func encodePNG(t *testing.T, fill color.Color, stripe bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := fill
			if stripe && x%16 < 8 {
				c = color.Black
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestSaveFileName(t *testing.T) {
	dir := t.TempDir()
	a := New(filepath.Join(dir, "shots"))
	a.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

	path, err := a.Save([]byte("png"), "a1b2/c3", "update")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := filepath.Join(dir, "shots", "20240309_140507_round-a1b2_c3_update.png")
	if path != want {
		t.Errorf("Save() path = %q, want %q", path, want)
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "png" {
		t.Errorf("file content = %q, %v", data, err)
	}
}

func TestSaveTickSkipsIdenticalFrames(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)
	seq := 0
	a.now = func() time.Time {
		seq++
		return time.Date(2024, 1, 1, 0, 0, seq, 0, time.UTC)
	}

	white := encodePNG(t, color.White, false)
	striped := encodePNG(t, color.White, true)

	steps := []struct {
		frame []byte
		saved bool
	}{
		{white, true},
		{white, false},
		{striped, true},
		{white, true},
	}
	for i, s := range steps {
		_, saved, err := a.SaveTick(s.frame, "r1")
		if err != nil {
			t.Fatalf("step %d: SaveTick: %v", i, err)
		}
		if saved != s.saved {
			t.Errorf("step %d: saved = %v, want %v", i, saved, s.saved)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Errorf("archived %d files, want 3", len(entries))
	}
}

func TestDisabledArchive(t *testing.T) {
	a := New("")
	if a.Enabled() {
		t.Fatalf("Enabled() = true for empty dir")
	}
	if path, err := a.Save([]byte("x"), "r", "t"); path != "" || err != nil {
		t.Errorf("Save() = %q, %v; want no-op", path, err)
	}
}
