package gpu

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy4d/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormatInfo pairs a wgpu vertex format with its byte size.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// vertexFormats maps normalized shader types to wgpu vertex formats.
var vertexFormats = map[string]vertexFormatInfo{
	"float": {wgpu.VertexFormatFloat32, 4},
	"vec2":  {wgpu.VertexFormatFloat32x2, 8},
	"vec3":  {wgpu.VertexFormatFloat32x3, 12},
	"vec4":  {wgpu.VertexFormatFloat32x4, 16},
	"int":   {wgpu.VertexFormatSint32, 4},
	"ivec4": {wgpu.VertexFormatSint32x4, 16},
	"uint":  {wgpu.VertexFormatUint32, 4},
	"uvec4": {wgpu.VertexFormatUint32x4, 16},
}

// vertexStride is the byte stride of one uploaded vertex: a vec4<f32> position.
const vertexStride = 16

// vertexBufferLayout builds the interleaved layout of a shader's vertex inputs, in location
// order. The backend uploads positions only, so the layout must be exactly one vec4.
func vertexBufferLayout(r *shader.Reflection) (wgpu.VertexBufferLayout, error) {
	inputs := append([]shader.VertexInput(nil), r.Inputs...)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })

	attrs := make([]wgpu.VertexAttribute, 0, len(inputs))
	var offset uint64
	for _, in := range inputs {
		info, ok := vertexFormats[in.Type]
		if !ok {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("gpu: vertex input %s has unsupported type %s", in.Name, in.Type)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(in.Location),
		})
		offset += info.size
	}
	if offset != vertexStride {
		return wgpu.VertexBufferLayout{}, fmt.Errorf("gpu: vertex inputs occupy %d bytes, only a %d byte position is uploaded", offset, vertexStride)
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

// uniformLayoutEntries builds the bind group layout entries of every uniform block in group.
func uniformLayoutEntries(r *shader.Reflection, group int) []wgpu.BindGroupLayoutEntry {
	var entries []wgpu.BindGroupLayoutEntry
	for _, u := range r.Uniforms {
		if u.Group != group {
			continue
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(u.Binding),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = u.Size
		entries = append(entries, entry)
	}
	return entries
}
