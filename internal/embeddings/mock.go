package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"

	"github.com/formbricks/lookalike/pkg/embeddings"
)

// MockClient implements the Client interface for development and tests.
// It derives a deterministic embedding from the image's pixels.
type MockClient struct {
	dimensions int
}

// Ensure MockClient implements Client interface
var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client producing vectors of the given length.
func NewMockClient(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// EmbedImage implements Client.
func (c *MockClient) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if img == nil {
		return nil, ErrNilImage
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return c.generateDeterministicEmbedding(pixelDigest(img)), nil
}

// Dimension implements Client.
func (c *MockClient) Dimension() int {
	return c.dimensions
}

// pixelDigest hashes the bounds and RGBA samples, so equal pictures hash equally
// regardless of their encoding.
func pixelDigest(img image.Image) [sha256.Size]byte {
	h := sha256.New()
	b := img.Bounds()

	var buf [8]byte

	binary.LittleEndian.PutUint32(buf[0:4], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(b.Dy()))
	h.Write(buf[:])

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			binary.LittleEndian.PutUint16(buf[0:2], uint16(r))
			binary.LittleEndian.PutUint16(buf[2:4], uint16(g))
			binary.LittleEndian.PutUint16(buf[4:6], uint16(bl))
			binary.LittleEndian.PutUint16(buf[6:8], uint16(a))
			h.Write(buf[:])
		}
	}

	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))

	return sum
}

// generateDeterministicEmbedding expands the digest into c.dimensions values in [-1, 1]
// by hashing it with a block counter, then normalizes.
func (c *MockClient) generateDeterministicEmbedding(digest [sha256.Size]byte) []float32 {
	embedding := make([]float32, c.dimensions)

	var (
		block   [sha256.Size]byte
		counter [4]byte
	)

	for i := 0; i < c.dimensions; i++ {
		if i%sha256.Size == 0 {
			binary.LittleEndian.PutUint32(counter[:], uint32(i/sha256.Size))
			block = sha256.Sum256(append(digest[:], counter[:]...))
		}

		embedding[i] = (float32(block[i%sha256.Size]) / 127.5) - 1.0
	}

	// Components lie in [-1, 1] and come from sha256 blocks, so the vector is never all zeros.
	_ = embeddings.NormalizeL2(embedding)

	return embedding
}
