package raster

import (
	"image"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer/shader"
)

// program is a verified GLSL program. Releasing it drops the shaders.
type program struct {
	shaders []shader.Shader
}

func (p *program) Release() {
	p.shaders = nil
}

func (p *program) bytes() uint64 {
	var n uint64
	for _, s := range p.shaders {
		n += uint64(len(s.Source()))
	}
	return n
}

// framebuffer is the color target. Its pixels are freed on release.
type framebuffer struct {
	img *image.RGBA
}

func newFramebuffer(width, height int) *framebuffer {
	return &framebuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (f *framebuffer) Release() {
	f.img = nil
}

func (f *framebuffer) bytes() uint64 {
	if f.img == nil {
		return 0
	}
	return uint64(len(f.img.Pix))
}

// buffer is a growable CPU-side upload buffer.
type buffer struct {
	data []byte
}

func (b *buffer) Release() {
	b.data = nil
}

// reserve grows the buffer to hold at least n bytes, doubling its capacity.
// It reports whether the capacity changed.
func (b *buffer) reserve(n int) bool {
	if n <= cap(b.data) {
		b.data = b.data[:n]
		return false
	}
	size := max(cap(b.data)*2, n, 256)
	grown := make([]byte, n, size)
	b.data = grown
	return true
}
