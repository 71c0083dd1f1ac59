package placement

// BufferKind names one of the four per-bucket opacity buffers.
type BufferKind uint8

const (
	BufferText BufferKind = iota
	BufferIcon
	BufferCollisionBox
	BufferCollisionCircle
)

func (k BufferKind) String() string {
	switch k {
	case BufferText:
		return "text"
	case BufferIcon:
		return "icon"
	case BufferCollisionBox:
		return "collision-box"
	case BufferCollisionCircle:
		return "collision-circle"
	default:
		return "unknown"
	}
}

// VertexUploader receives opacity buffers built by
// Placement.UpdateLayerOpacities. The slices are handed over: the bucket
// releases them after the call and the uploader may keep them.
type VertexUploader interface {
	UpdateSymbolOpacities(b *SymbolBucket, kind BufferKind, vertices []OpacityVertex)
	UpdateCollisionOpacities(b *SymbolBucket, kind BufferKind, vertices []CollisionOpacityVertex)
}

// MemoryUploader is a VertexUploader that keeps the latest buffers per
// bucket in memory. It is used by headless runs and tests.
type MemoryUploader struct {
	symbols    map[uploadKey][]OpacityVertex
	collisions map[uploadKey][]CollisionOpacityVertex
	uploads    int
}

type uploadKey struct {
	bucket *SymbolBucket
	kind   BufferKind
}

// NewMemoryUploader creates an empty uploader.
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{
		symbols:    make(map[uploadKey][]OpacityVertex),
		collisions: make(map[uploadKey][]CollisionOpacityVertex),
	}
}

// UpdateSymbolOpacities implements VertexUploader.
func (u *MemoryUploader) UpdateSymbolOpacities(b *SymbolBucket, kind BufferKind, vertices []OpacityVertex) {
	u.symbols[uploadKey{b, kind}] = vertices
	u.uploads++
}

// UpdateCollisionOpacities implements VertexUploader.
func (u *MemoryUploader) UpdateCollisionOpacities(b *SymbolBucket, kind BufferKind, vertices []CollisionOpacityVertex) {
	u.collisions[uploadKey{b, kind}] = vertices
	u.uploads++
}

// Symbol returns the last text or icon buffer uploaded for b.
func (u *MemoryUploader) Symbol(b *SymbolBucket, kind BufferKind) []OpacityVertex {
	return u.symbols[uploadKey{b, kind}]
}

// Collision returns the last collision buffer uploaded for b.
func (u *MemoryUploader) Collision(b *SymbolBucket, kind BufferKind) []CollisionOpacityVertex {
	return u.collisions[uploadKey{b, kind}]
}

// Uploads returns the number of buffers received.
func (u *MemoryUploader) Uploads() int {
	return u.uploads
}

// Forget drops everything stored for b, typically after its tile is
// unloaded.
func (u *MemoryUploader) Forget(b *SymbolBucket) {
	for _, k := range [...]BufferKind{BufferText, BufferIcon, BufferCollisionBox, BufferCollisionCircle} {
		delete(u.symbols, uploadKey{b, k})
		delete(u.collisions, uploadKey{b, k})
	}
}
