// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"image"
	"image/color"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/g3d/internal/logx"
)

// captionSize is the caption font size in points.
const captionSize = 12

// Surface is a headless output window. Presented backbuffers are scaled to
// the surface size and the caption is drawn over the top-left corner.
type Surface struct {
	mu      sync.Mutex
	width   int
	height  int
	img     *image.RGBA
	caption string
	frames  int
	face    font.Face
}

// NewSurface creates a surface of the given client size.
func NewSurface(width, height int) *Surface {
	return &Surface{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size implements gpucore.Surface.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the client size, as a window resize would.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// SetCaption sets the text drawn over presented frames.
func (s *Surface) SetCaption(caption string) {
	s.mu.Lock()
	s.caption = caption
	s.mu.Unlock()
}

// Caption returns the current caption.
func (s *Surface) Caption() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caption
}

// Frames returns the number of frames shown.
func (s *Surface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Image returns a copy of the last shown frame.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := image.NewRGBA(s.img.Rect)
	copy(img.Pix, s.img.Pix)
	return img
}

func (s *Surface) show(src *image.RGBA) {
	if src == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.img
	if src.Bounds().Size() == dst.Bounds().Size() {
		xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}
	s.frames++

	if s.caption != "" {
		s.drawCaption()
	}
}

// drawCaption draws the caption. s.mu must be held.
func (s *Surface) drawCaption() {
	if s.face == nil {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			logx.Logger().Warn("software: caption font", "err", err)
			return
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    captionSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			logx.Logger().Warn("software: caption face", "err", err)
			return
		}
		s.face = face
	}

	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(color.White),
		Face: s.face,
		Dot:  fixed.P(4, 4+captionSize),
	}
	d.DrawString(s.caption)
}
