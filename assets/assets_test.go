package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/fonts"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 0x1f, G: 0x46, B: 0x75, A: 0xff})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestResolve_Fallback(t *testing.T) {
	r := NewResolver(WithOnlyDirs(t.TempDir()))
	set := r.Resolve()
	if set.Custom() {
		t.Fatalf("no fonts on the search path, got a custom family")
	}
	if set.Family != fonts.Builtin {
		t.Fatalf("Family = %+v, want builtin", set.Family)
	}
	if set.HeaderLogo != nil || set.SignatureLogo != nil {
		t.Fatalf("unexpected logos")
	}

	rec := builder.NewRecorder(builder.Letter)
	if fam := set.Register(rec, nil); fam != fonts.Builtin || len(rec.Fonts) != 0 {
		t.Fatalf("Register on fallback set = %+v, %d fonts", fam, len(rec.Fonts))
	}
}

func TestResolve_CustomFamily(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "OpenSans-Regular.ttf", goregular.TTF)
	writeFile(t, dir, "OpenSans-Bold.ttf", gobold.TTF)
	writeFile(t, dir, "OpenSans-Italic.ttf", goitalic.TTF)

	set := NewResolver(WithOnlyDirs(dir)).Resolve()
	if !set.Custom() || set.Italic == nil {
		t.Fatalf("expected the custom family with italic, got %+v", set.Family)
	}
	want := fonts.Family{Regular: "OpenSans", Bold: "OpenSans-Bold", Italic: "OpenSans-Italic"}
	if set.Family != want {
		t.Fatalf("Family = %+v, want %+v", set.Family, want)
	}

	rec := builder.NewRecorder(builder.Letter)
	if fam := set.Register(rec, nil); fam != want {
		t.Fatalf("Register = %+v", fam)
	}
	// Registering again on the same canvas is a no-op.
	set.Register(rec, nil)
	if len(rec.Fonts) != 3 {
		t.Fatalf("registered %d fonts, want 3", len(rec.Fonts))
	}
}

func TestResolve_PairRequired(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "OpenSans-Regular.ttf", goregular.TTF)

	set := NewResolver(WithOnlyDirs(dir)).Resolve()
	if set.Custom() {
		t.Fatalf("regular without bold must not select the family")
	}
}

func TestResolve_SkipsCorruptCandidates(t *testing.T) {
	bad, good := t.TempDir(), t.TempDir()
	writeFile(t, bad, "OpenSans-Regular.ttf", []byte("not a font"))
	writeFile(t, bad, "OpenSans-Bold.ttf", gobold.TTF)
	writeFile(t, bad, "statsig-header.png", []byte("not an image"))
	writeFile(t, good, "OpenSans-Regular.ttf", goregular.TTF)
	writeFile(t, good, "OpenSans-Bold.ttf", gobold.TTF)
	writeFile(t, good, "statsig_logo.png", pngBytes(t, 40, 10))

	set := NewResolver(WithOnlyDirs(bad, good)).Resolve()
	if !set.Custom() {
		t.Fatalf("expected the valid family from the second directory")
	}
	if set.HeaderLogo == nil || set.HeaderLogo.Width != 40 {
		t.Fatalf("expected the valid logo from the second directory, got %+v", set.HeaderLogo)
	}
}

func TestResolve_LogoPriorityAndFit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "statsig-logo.png", pngBytes(t, 20, 20))
	writeFile(t, dir, "statsig-header.png", pngBytes(t, 1000, 200))

	r := NewResolver(WithOnlyDirs(dir), WithLogoBox(500, 100))
	set := r.Resolve()
	if set.HeaderLogo == nil {
		t.Fatalf("header logo not found")
	}
	if set.HeaderLogo.Width != 500 || set.HeaderLogo.Height != 100 {
		t.Fatalf("header logo %dx%d, want 500x100", set.HeaderLogo.Width, set.HeaderLogo.Height)
	}
	if set.SignatureLogo == nil || set.SignatureLogo.Width != 20 {
		t.Fatalf("signature logo = %+v", set.SignatureLogo)
	}
	if r.Resolve() != set {
		t.Fatalf("Resolve must cache its result")
	}
}

func TestDecodeLogo_Rejects(t *testing.T) {
	if _, err := DecodeLogo("x", []byte("GIF89a?"), 10, 10); err == nil {
		t.Fatalf("expected a decode error")
	}
}
