package embeddings

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// clipInputSize is the side length of the square CLIP ViT input.
const clipInputSize = 224

var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// PreprocessCLIP resizes src so its shorter side is size (Catmull-Rom), centre-crops
// a size x size square and returns it as normalized NCHW float32 planes (R, G, B).
func PreprocessCLIP(src image.Image, size int) []float32 {
	sb := src.Bounds()

	sw := sb.Dx()
	sh := sb.Dy()

	var rw, rh int

	if sw < sh {
		rw = size
		rh = max(size, int(float64(sh)*(float64(size)/float64(sw))))
	} else {
		rh = size
		rw = max(size, int(float64(sw)*(float64(size)/float64(sh))))
	}

	resized := image.NewRGBA(image.Rect(0, 0, rw, rh))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), src, sb, draw.Src, nil)

	offX := (rw - size) / 2
	offY := (rh - size) / 2

	crop := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(crop, crop.Bounds(), resized, image.Point{X: offX, Y: offY}, draw.Src)

	plane := size * size
	out := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := crop.PixOffset(x, y)
			p := crop.Pix[i : i+3 : i+3]

			rf := float32(p[0]) / 255.0
			gf := float32(p[1]) / 255.0
			bf := float32(p[2]) / 255.0

			j := y*size + x

			out[0*plane+j] = (rf - clipMean[0]) / clipStd[0]
			out[1*plane+j] = (gf - clipMean[1]) / clipStd[1]
			out[2*plane+j] = (bf - clipMean[2]) / clipStd[2]
		}
	}

	return out
}
