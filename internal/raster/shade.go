/**
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package raster

import (
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
)

const (
	// DefaultAlphabet is a short ramp of printable glyphs from sparse to dense.
	// Whitespace never enters a ramp: a blank cell cannot show its colour.
	DefaultAlphabet = ".:-=+*#%@"
	glyphCanvasW    = 12
	glyphCanvasH    = 20
	maxNormGS       = 256
)

type (
	// Artifact is a glyph with its measured ink coverage.
	Artifact struct {
		Text          string
		AbsGS, NormGS int
	}
	// Ramp is a list of artifacts sorted by coverage, sparse first.
	Ramp []*Artifact
)

func (a Artifact) String() string {
	return fmt.Sprintf("%s\t%d\t%d", a.Text, a.AbsGS, a.NormGS)
}

func (r Ramp) String() string {
	var sb strings.Builder
	for _, a := range r {
		sb.WriteString(a.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (r Ramp) Len() int           { return len(r) }
func (r Ramp) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r Ramp) Less(i, j int) bool { return r[i].AbsGS < r[j].AbsGS }

// Normalize spreads the absolute coverage over 0..256.
func (r Ramp) Normalize() {
	if len(r) == 0 {
		return
	}
	lo, hi := r[0].AbsGS, r[0].AbsGS
	for _, a := range r {
		lo = min(lo, a.AbsGS)
		hi = max(hi, a.AbsGS)
	}
	for _, a := range r {
		if hi == lo {
			a.NormGS = 0
			continue
		}
		a.NormGS = maxNormGS * (a.AbsGS - lo) / (hi - lo)
	}
}

// FindClosest returns the artifact whose normalised coverage is nearest to gs.
// The ramp must be sorted and non-empty.
func (r Ramp) FindClosest(gs int) *Artifact {
	i := sort.Search(len(r), func(i int) bool { return r[i].NormGS >= gs })
	switch {
	case i == 0:
		return r[0]
	case i == len(r):
		return r[len(r)-1]
	}
	if gs-r[i-1].NormGS <= r[i].NormGS-gs {
		return r[i-1]
	}
	return r[i]
}

func removeDuplicates(r Ramp) Ramp {
	result := Ramp{}
	for i, a := range r {
		if i > 0 && a.NormGS == r[i-1].NormGS {
			continue
		}
		result = append(result, a)
	}
	return result
}

// AnalyzeFont draws every glyph of alphabet with the given TrueType font and
// builds a ramp ordered by how much ink each glyph leaves.
func AnalyzeFont(ttf []byte, alphabet string) (Ramp, error) {
	font, err := truetype.Parse(ttf)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	r := make(Ramp, 0, len(alphabet))
	for _, char := range alphabet {
		if unicode.IsSpace(char) {
			continue
		}
		rgba, err := renderGlyph(string(char), font)
		if err != nil {
			return nil, err
		}
		ink := countInk(rgba)
		r = append(r, &Artifact{Text: string(char), AbsGS: ink, NormGS: ink})
	}
	if len(r) == 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "alphabet %q has no printable glyphs", alphabet)
	}
	sort.Stable(r)
	r.Normalize()
	return removeDuplicates(r), nil
}

func renderGlyph(str string, font *truetype.Font) (*image.RGBA, error) {
	rgba := image.NewRGBA(image.Rect(0, 0, glyphCanvasW, glyphCanvasH))
	draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(font)
	c.SetFontSize(16)
	c.SetClip(rgba.Bounds())
	c.SetDst(rgba)
	c.SetSrc(image.Black)
	if _, err := c.DrawString(str, freetype.Pt(0, 16)); err != nil {
		return nil, errors.Wrapf(err, "draw glyph %q", str)
	}
	return rgba, nil
}

// countInk counts the channels darker than mid gray.
func countInk(rgba *image.RGBA) int {
	s := 0
	for i := 0; i+2 < len(rgba.Pix); i += 4 {
		for _, v := range rgba.Pix[i : i+3] {
			if v < 0x80 {
				s++
			}
		}
	}
	return s
}

// SaveRamp writes the ramp as JSON.
func SaveRamp(w io.Writer, r Ramp) error {
	return errors.Wrap(json.NewEncoder(w).Encode(r), "encode ramp")
}

// LoadRamp reads a ramp written by SaveRamp and restores its ordering.
func LoadRamp(rd io.Reader) (Ramp, error) {
	var all Ramp
	if err := json.NewDecoder(rd).Decode(&all); err != nil {
		return nil, errors.Wrap(err, "decode ramp")
	}
	r := all[:0]
	for _, a := range all {
		if a != nil && strings.TrimSpace(a.Text) != "" {
			r = append(r, a)
		}
	}
	if len(r) == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "empty glyph ramp")
	}
	sort.Stable(r)
	return r, nil
}
