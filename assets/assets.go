// Package assets finds the optional order form assets on disk: a custom
// TrueType family and the header and signature logos. Every candidate that
// is missing or unreadable is skipped, so resolution always yields a usable
// set, falling back to the builtin fonts and a text-only header.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/wudi/orderkit/builder"
	"github.com/wudi/orderkit/fonts"
	"github.com/wudi/orderkit/observability"
)

// FamilyCandidate names the files of one custom font family. Regular and
// Bold must both load for the family to be used; Italic is optional.
type FamilyCandidate struct {
	Name    string
	Regular string
	Bold    string
	Italic  string
}

// DefaultFamilies are searched in order inside every asset directory.
var DefaultFamilies = []FamilyCandidate{
	{Name: "OpenSans", Regular: "OpenSans-Regular.ttf", Bold: "OpenSans-Bold.ttf", Italic: "OpenSans-Italic.ttf"},
}

// DefaultHeaderLogos and DefaultSignatureLogos are logo file names in
// priority order.
var (
	DefaultHeaderLogos = []string{
		"statsig-header.png",
		"statsig_header.png",
		"statsig-logo.png",
		"statsig_logo.png",
		"Logo-min.png",
		"Statsig Logo.jpeg",
	}
	DefaultSignatureLogos = []string{
		"statsig-mark.png",
		"Logo-min.png",
		"statsig-logo.png",
	}
)

// DefaultDirs are searched after any directories passed to WithDirs.
var DefaultDirs = []string{
	"assets",
	"/usr/share/orderkit/assets",
	"/Library/Fonts",
	"/System/Library/Fonts/Supplemental",
}

// Set is the outcome of resolution. Nil fonts mean the builtin family is
// used; nil logos mean the header falls back to text.
type Set struct {
	Family        fonts.Family
	Regular       *fonts.TrueType
	Bold          *fonts.TrueType
	Italic        *fonts.TrueType
	HeaderLogo    *builder.Image
	SignatureLogo *builder.Image
}

// Custom reports whether a custom regular/bold pair was found.
func (s *Set) Custom() bool { return s != nil && s.Regular != nil && s.Bold != nil }

// Register makes the resolved fonts available on c and returns the family
// to draw with. A font the canvas rejects degrades that style to builtin.
func (s *Set) Register(c builder.Canvas, log observability.Logger) fonts.Family {
	if log == nil {
		log = observability.NopLogger{}
	}
	fam := fonts.Builtin
	if s == nil {
		return fam
	}
	if s.Custom() {
		errR := c.RegisterTrueTypeFont(s.Regular.Name, s.Regular.Data)
		errB := c.RegisterTrueTypeFont(s.Bold.Name, s.Bold.Data)
		if errR == nil && errB == nil {
			fam.Regular, fam.Bold = s.Regular.Name, s.Bold.Name
		} else {
			log.Warn("custom font rejected by canvas, using builtin",
				observability.Error("regular", errR), observability.Error("bold", errB))
		}
	}
	if s.Italic != nil {
		if err := c.RegisterTrueTypeFont(s.Italic.Name, s.Italic.Data); err == nil {
			fam.Italic = s.Italic.Name
		} else {
			log.Warn("italic font rejected by canvas, using builtin", observability.Error("error", err))
		}
	}
	return fam
}

// Resolver searches the candidate locations once and caches the result, so
// it can be shared by concurrent renders.
type Resolver struct {
	dirs           []string
	families       []FamilyCandidate
	headerLogos    []string
	signatureLogos []string
	logoBox        [2]int
	log            observability.Logger

	once sync.Once
	set  *Set
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDirs puts dirs ahead of the default search directories.
func WithDirs(dirs ...string) Option {
	return func(r *Resolver) {
		r.dirs = append(append([]string{}, dirs...), r.dirs...)
	}
}

// WithOnlyDirs replaces the search directories.
func WithOnlyDirs(dirs ...string) Option {
	return func(r *Resolver) { r.dirs = append([]string{}, dirs...) }
}

// WithFamilies replaces the font family candidates.
func WithFamilies(f ...FamilyCandidate) Option {
	return func(r *Resolver) { r.families = f }
}

// WithLogos replaces the header and signature logo candidates.
func WithLogos(header, signature []string) Option {
	return func(r *Resolver) {
		r.headerLogos = header
		r.signatureLogos = signature
	}
}

// WithLogoBox bounds decoded logos to w×h pixels before embedding.
func WithLogoBox(w, h int) Option {
	return func(r *Resolver) { r.logoBox = [2]int{w, h} }
}

// WithLogger sets the logger for rejected and selected candidates.
func WithLogger(l observability.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a resolver over the default candidates.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		dirs:           append([]string{}, DefaultDirs...),
		families:       DefaultFamilies,
		headerLogos:    DefaultHeaderLogos,
		signatureLogos: DefaultSignatureLogos,
		logoBox:        [2]int{760, 152},
		log:            observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the cached asset set, searching on first use.
func (r *Resolver) Resolve() *Set {
	r.once.Do(func() {
		r.set = r.search()
	})
	return r.set
}

func (r *Resolver) search() *Set {
	s := &Set{Family: fonts.Builtin}

	for _, fam := range r.families {
		reg, bold, ok := r.loadPair(fam)
		if !ok {
			continue
		}
		s.Regular, s.Bold = reg, bold
		s.Family.Regular, s.Family.Bold = reg.Name, bold.Name
		r.log.Info("custom font family selected", observability.String("family", fam.Name))
		break
	}
	for _, fam := range r.families {
		if fam.Italic == "" {
			continue
		}
		if it := r.loadFont(fam.Name+"-Italic", fam.Italic); it != nil {
			s.Italic = it
			s.Family.Italic = it.Name
			break
		}
	}
	if !s.Custom() {
		r.log.Warn("no custom font family found, using builtin fonts")
	}

	s.HeaderLogo = r.loadLogo("header-logo", r.headerLogos)
	s.SignatureLogo = r.loadLogo("signature-logo", r.signatureLogos)
	return s
}

func (r *Resolver) loadPair(fam FamilyCandidate) (*fonts.TrueType, *fonts.TrueType, bool) {
	// Both styles come from the same directory.
	for _, dir := range r.dirs {
		regPath, boldPath := filepath.Join(dir, fam.Regular), filepath.Join(dir, fam.Bold)
		if !exists(regPath) || !exists(boldPath) {
			continue
		}
		reg, err := readFont(fam.Name, regPath)
		if err != nil {
			r.log.Warn("font candidate rejected", observability.String("path", regPath), observability.Error("error", err))
			continue
		}
		bold, err := readFont(fam.Name+"-Bold", boldPath)
		if err != nil {
			r.log.Warn("font candidate rejected", observability.String("path", boldPath), observability.Error("error", err))
			continue
		}
		return reg, bold, true
	}
	return nil, nil, false
}

func (r *Resolver) loadFont(name, file string) *fonts.TrueType {
	for _, dir := range r.dirs {
		path := filepath.Join(dir, file)
		if !exists(path) {
			continue
		}
		tt, err := readFont(name, path)
		if err != nil {
			r.log.Warn("font candidate rejected", observability.String("path", path), observability.Error("error", err))
			continue
		}
		return tt
	}
	return nil
}

func (r *Resolver) loadLogo(name string, files []string) *builder.Image {
	for _, dir := range r.dirs {
		for _, file := range files {
			path := filepath.Join(dir, file)
			if !exists(path) {
				continue
			}
			img, err := LoadLogo(name, path, r.logoBox[0], r.logoBox[1])
			if err != nil {
				r.log.Warn("logo candidate rejected", observability.String("path", path), observability.Error("error", err))
				continue
			}
			r.log.Info("logo selected", observability.String("kind", name), observability.String("path", path))
			return img
		}
	}
	return nil
}

func readFont(name, path string) (*fonts.TrueType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fonts.LoadTrueType(name, data)
}

// LoadLogo decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file, shrinks it to
// fit maxW×maxH pixels and re-encodes it for embedding. Images already
// inside the box are left at their size.
func LoadLogo(name, path string, maxW, maxH int) (*builder.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeLogo(name, data, maxW, maxH)
}

// DecodeLogo is LoadLogo over in-memory data.
func DecodeLogo(name string, data []byte, maxW, maxH int) (*builder.Image, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	var img image.Image = src
	b := src.Bounds()
	if maxW > 0 && maxH > 0 && (b.Dx() > maxW || b.Dy() > maxH) {
		img = imaging.Fit(src, maxW, maxH, imaging.Lanczos)
	}
	return builder.FromImage(name, img)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
