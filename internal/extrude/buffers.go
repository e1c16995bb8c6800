package extrude

import (
	"encoding/binary"
	"fmt"
	"io"
)

// VertexStride is the byte size of one interleaved Vertex.
const VertexStride = 8 * 4

// WriteBuffers dumps the interleaved vertex buffer and the index buffer as
// raw little-endian data, the layout a GPU upload expects. Nothing else is
// written: counts follow from the byte lengths and VertexStride.
func (m *MeshBuffers) WriteBuffers(vertices, indices io.Writer) error {
	if err := binary.Write(vertices, binary.LittleEndian, m.Interleave()); err != nil {
		return fmt.Errorf("writing vertex buffer: %w", err)
	}
	if err := binary.Write(indices, binary.LittleEndian, m.Triangles); err != nil {
		return fmt.Errorf("writing index buffer: %w", err)
	}
	return nil
}
