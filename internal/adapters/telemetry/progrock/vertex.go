package progrock

import (
	"fmt"
	"sync"

	"github.com/vito/progrock"
)

// CachedAttribute marks a vertex as a cache hit when set to true.
const CachedAttribute = "cached"

// Vertex implements ports.Span wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex *progrock.VertexRecorder

	mu   sync.Mutex
	err  error
	done bool
}

// Write records p on the vertex output stream.
func (v *Vertex) Write(p []byte) (int, error) {
	return v.vertex.Stdout().Write(p)
}

// RecordError remembers err; End completes the vertex with it.
func (v *Vertex) RecordError(err error) {
	if err == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
	_, _ = fmt.Fprintf(v.vertex.Stderr(), "%s\n", err)
}

// SetAttribute records the attribute on the vertex output.
func (v *Vertex) SetAttribute(key string, value any) {
	if key == CachedAttribute {
		if cached, ok := value.(bool); ok && cached {
			v.vertex.Cached()
			return
		}
	}
	_, _ = fmt.Fprintf(v.vertex.Stdout(), "%s=%v\n", key, value)
}

// End marks the vertex as finished. Only the first call has an effect.
func (v *Vertex) End() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		return
	}
	v.done = true
	v.vertex.Done(v.err)
}
