package features

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/spf13/afero"
)

const (
	histogramBins = 8
	thumbnailSize = 128
)

// ImageProvider 图片特征：高、宽、宽高比，以及颜色直方图的前几个分箱
// 直方图在缩略图上统计，取蓝色前 3 个、绿色前 3 个、红色第 1 个分箱
type ImageProvider struct{}

func (ImageProvider) Features(fs afero.Fs, path string) ([]float64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图片: %w", err)
	}

	bounds := img.Bounds()
	height, width := bounds.Dy(), bounds.Dx()
	if height == 0 || width == 0 {
		return nil, fmt.Errorf("图片尺寸为 0")
	}
	aspect := float64(width) / float64(height)

	thumb := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.NearestNeighbor)
	r, g, b := histogram(thumb)

	out := []float64{float64(height), float64(width), aspect}
	out = append(out, b[:3]...)
	out = append(out, g[:3]...)
	out = append(out, r[:1]...)
	return out, nil
}

func histogram(img image.Image) (r, g, b []float64) {
	r = make([]float64, histogramBins)
	g = make([]float64, histogramBins)
	b = make([]float64, histogramBins)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			// RGBA 返回 16 位分量
			r[(cr>>8)*histogramBins/256]++
			g[(cg>>8)*histogramBins/256]++
			b[(cb>>8)*histogramBins/256]++
		}
	}
	return r, g, b
}
