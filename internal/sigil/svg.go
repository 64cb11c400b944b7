package sigil

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"
)

// DefaultSize is the canvas edge length in pixels for rendered sigils.
const DefaultSize = 256

// Params are the drawing instructions derived from a digest: how many
// starburst lines to draw, at which angles, and how many runes ride on
// each line. Deriving them twice from the same digest yields identical
// values.
type Params struct {
	NumLines int
	MinRunes int
	MaxRunes int
	Angles   []int
}

// DeriveParams maps digest nibbles to drawing parameters. The digest
// must be a 64-character hex string.
func DeriveParams(digest string) (*Params, error) {
	if err := checkDigest(digest); err != nil {
		return nil, err
	}

	p := &Params{
		NumLines: hexPair(digest, 0)%6 + 5,
		MinRunes: hexPair(digest, 2)%2 + 1,
		MaxRunes: hexPair(digest, 4)%2 + 2,
	}

	// Each line claims a distinct 36-degree sector, then jitters
	// within it. Sectors are consumed as they are picked so no two
	// lines overlap.
	sectors := make([]int, 0, 10)
	for a := 0; a < 360; a += 36 {
		sectors = append(sectors, a)
	}
	for i := 0; i < p.NumLines; i++ {
		seg := hexPair(digest, i*2)
		idx := seg % len(sectors)
		base := sectors[idx]
		sectors = append(sectors[:idx], sectors[idx+1:]...)
		jitter := hexPair(digest, i*2+2)%20 - 10
		p.Angles = append(p.Angles, base+jitter)
	}

	return p, nil
}

// Render draws the sigil for a digest and returns the SVG bytes.
// Purely a function of the digest: same input, byte-identical output.
func Render(digest string, size int) ([]byte, error) {
	params, err := DeriveParams(digest)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultSize
	}

	center := size / 2
	ringWidth := 10
	outerRadius := center - 20
	innerRadius := outerRadius - ringWidth

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(size, size)
	canvas.Rect(0, 0, size, size, "fill:white")

	circleColor := "#" + digest[6:12]
	canvas.Circle(center, center, outerRadius, "fill:#E0E0E0;stroke:none")
	canvas.Circle(center, center, innerRadius, "fill:"+circleColor+";stroke:none")
	canvas.Circle(center, center, outerRadius, "fill:none;stroke:black;stroke-width:1")
	canvas.Circle(center, center, innerRadius, "fill:none;stroke:black;stroke-width:1")

	drawOuterRim(canvas, digest, center, outerRadius, ringWidth)
	drawStarburst(canvas, digest, center, params, innerRadius)
	drawCenterRune(canvas, digest, center)

	canvas.End()
	return buf.Bytes(), nil
}

// drawOuterRim rings the sigil with runes picked pairwise from the
// digest, each rotated by its own nibble value.
func drawOuterRim(canvas *svg.SVG, digest string, center, radius, ringWidth int) {
	adjusted := float64(radius) - float64(ringWidth)*0.6
	circumference := 2 * math.Pi * adjusted
	const fontSize, spacing = 5.0, 1.1
	numRunes := int(circumference / (fontSize * spacing))
	if numRunes < 1 {
		return
	}

	type mapping struct {
		rune     string
		rotation int
	}
	var base []mapping
	for i := 0; i+2 <= len(digest); i += 2 {
		pair := hexPair(digest, i)
		base = append(base, mapping{
			rune:     AllRunes[pair%len(AllRunes)],
			rotation: pair % 360,
		})
	}

	angleStep := 360.0 / float64(numRunes)
	for i := 0; i < numRunes; i++ {
		m := base[i%len(base)]
		angle := float64(i) * angleStep
		x, y := polar(center, adjusted, angle)
		canvas.TranslateRotate(x, y, float64(m.rotation)+angle)
		canvas.Text(0, 0, m.rune, "text-anchor:middle;alignment-baseline:middle;font-size:5px")
		canvas.Gend()
	}
}

// drawStarburst draws the radial lines and the runes riding them.
func drawStarburst(canvas *svg.SVG, digest string, center int, params *Params, innerRadius int) {
	clearRadius := float64(innerRadius) * 0.4
	endRadius := float64(innerRadius)

	for i, angle := range params.Angles {
		x1, y1 := polar(center, clearRadius, float64(angle))
		x2, y2 := polar(center, endRadius, float64(angle))
		canvas.Line(x1, y1, x2, y2, "stroke:black;stroke-width:2")

		span := params.MaxRunes - params.MinRunes + 1
		numRunes := params.MinRunes + hexPair(digest, i*2)%span
		segment := (endRadius - clearRadius) / float64(numRunes+1)

		for j := 0; j < numRunes; j++ {
			radius := clearRadius + segment*float64(j+1)
			if j == numRunes-1 {
				radius = math.Min(radius, endRadius-5)
			}
			x, y := polar(center, radius, float64(angle))
			offset := (i + j) % 32
			r := Ogham[hexPair(digest, offset)%len(Ogham)]
			canvas.TranslateRotate(x, y, float64(angle))
			canvas.Text(0, 0, r, "text-anchor:middle;alignment-baseline:middle;font-size:14px")
			canvas.Gend()
		}
	}
}

func drawCenterRune(canvas *svg.SVG, digest string, center int) {
	r := AllRunes[hexPair(digest, 0)%len(AllRunes)]
	canvas.Text(center, center+8, r, "text-anchor:middle;alignment-baseline:middle;font-size:70px")
}

// polar converts an angle and radius into canvas coordinates.
func polar(center int, radius, angleDeg float64) (int, int) {
	x := float64(center) + math.Cos(angleDeg*math.Pi/180)*radius
	y := float64(center) + math.Sin(angleDeg*math.Pi/180)*radius
	return int(math.Round(x)), int(math.Round(y))
}

// hexPair reads the two hex characters at offset i as an int. Offsets
// are validated up front by checkDigest, so parse errors cannot occur.
func hexPair(digest string, i int) int {
	v, _ := strconv.ParseInt(digest[i:i+2], 16, 32)
	return int(v)
}

func checkDigest(digest string) error {
	if len(digest) != 64 {
		return fmt.Errorf("digest must be 64 hex characters, got %d", len(digest))
	}
	for _, c := range digest {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return fmt.Errorf("digest contains non-hex character %q", c)
		}
	}
	return nil
}
