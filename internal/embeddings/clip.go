//go:build onnx

package embeddings

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/formbricks/lookalike/pkg/embeddings"
)

// CLIPModelFile is the visual tower expected inside the model directory.
const CLIPModelFile = "clip_visual.onnx"

var ortInitMu sync.Mutex

// CLIPClient runs the CLIP visual tower locally through ONNX Runtime.
type CLIPClient struct {
	sess *ort.AdvancedSession
	in   *ort.Tensor[float32] // [1,3,224,224]
	out  *ort.Tensor[float32] // [1,dim]
	dim  int

	mu sync.Mutex
}

func initRuntime(libraryPath string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}

	return nil
}

// NewCLIPClient loads clip_visual.onnx from modelDir. libraryPath may be empty to use
// the platform default onnxruntime shared library.
func NewCLIPClient(modelDir, libraryPath string, dim int) (*CLIPClient, error) {
	if err := initRuntime(libraryPath); err != nil {
		return nil, err
	}

	in, err := ort.NewTensor(ort.NewShape(1, 3, clipInputSize, clipInputSize), make([]float32, 3*clipInputSize*clipInputSize))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dim)))
	if err != nil {
		in.Destroy()

		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	sess, err := ort.NewAdvancedSession(
		filepath.Join(modelDir, CLIPModelFile),
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		[]ort.ArbitraryTensor{in},
		[]ort.ArbitraryTensor{out},
		nil,
	)
	if err != nil {
		in.Destroy()
		out.Destroy()

		return nil, fmt.Errorf("create clip session: %w", err)
	}

	return &CLIPClient{sess: sess, in: in, out: out, dim: dim}, nil
}

// EmbedImage implements Client.
func (c *CLIPClient) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if img == nil {
		return nil, ErrNilImage
	}

	pixels := PreprocessCLIP(img, clipInputSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.in.GetData(), pixels)

	if err := c.sess.Run(); err != nil {
		return nil, fmt.Errorf("run clip session: %w", err)
	}

	data := c.out.GetData()
	if len(data) < c.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(data), c.dim)
	}

	emb := make([]float32, c.dim)
	copy(emb, data[:c.dim])
	if err := embeddings.NormalizeL2(emb); err != nil {
		return nil, fmt.Errorf("clip output: %w", err)
	}

	return emb, nil
}

// Dimension implements Client.
func (c *CLIPClient) Dimension() int {
	return c.dim
}

// Close releases the session and its tensors.
func (c *CLIPClient) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sess.Destroy()
	c.in.Destroy()
	c.out.Destroy()

	return nil
}
