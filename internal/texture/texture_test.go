package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.Set(i%2, i/2, c)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// tgaPixel is an uncompressed 1x1 true-color TGA with alpha.
func tgaPixel(b, g, r, a byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = 2 // uncompressed true-color
	hdr[12], hdr[14] = 1, 1
	hdr[16] = 32
	hdr[17] = 0x28 // top-left origin, 8 alpha bits
	return append(hdr, b, g, r, a)
}

func TestDecodeTGA(t *testing.T) {
	img, err := Decode(tgaPixel(10, 20, 30, 255), ".tga")
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{30, 20, 10, 255}) {
		t.Fatalf("expected (30,20,10,255), got %v", got)
	}
}

func TestLoadOZTSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glow.ozt")
	if err := os.WriteFile(path, append([]byte{0, 0, 0, 0}, tgaPixel(0, 0, 255, 255)...), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := LoadTexture(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Fatalf("expected opaque red, got %v", got)
	}
}

func TestIndexPrefersEarlierExtension(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(dir, "Stone.jpg"), color.NRGBA{A: 255}) // never decoded
	writePNG(t, filepath.Join(sub, "stone.png"), color.NRGBA{R: 200, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx := BuildIndex(dir)
	if idx.Len() != 1 {
		t.Fatalf("expected one stem, got %d", idx.Len())
	}
	path, ok := idx.ResolvePath(`Data\Item\STONE.bmp`)
	if !ok || path != filepath.Join(sub, "stone.png") {
		t.Fatalf("expected the png to win, got %q (%v)", path, ok)
	}
	if _, ok := idx.ResolvePath(""); ok {
		t.Fatal("expected the empty name to resolve to nothing")
	}
}

func TestCacheLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grass.png")
	writePNG(t, path, color.NRGBA{G: 180, A: 255})
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(nil)
	var wg sync.WaitGroup
	imgs := make([]*image.NRGBA, 8)
	for i := range imgs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			imgs[i] = c.Resolve(path)
		}(i)
	}
	wg.Wait()
	for i, img := range imgs {
		if img == nil || img != imgs[0] {
			t.Fatalf("resolve %d: expected the shared cached image", i)
		}
	}

	if c.Resolve(broken) != nil {
		t.Fatal("expected a broken texture to resolve to nil")
	}
	if f := c.Failures(); len(f) != 1 || f[broken] == nil {
		t.Fatalf("expected one recorded failure, got %v", f)
	}
	if c.Resolve(filepath.Join(dir, "missing.png")) != nil {
		t.Fatal("expected a missing texture to resolve to nil")
	}
}
