package atlas

import (
	"math"
	"sort"

	"github.com/Faultbox/lodgen/pkg/texture"
)

// MaxCanvasSize caps atlas canvas width and height.
const MaxCanvasSize = 8192

// Region is the placement of one source image inside a role's canvas.
type Region struct {
	X, Y, W, H int
}

// nextPow2 returns the next power of two >= v.
func nextPow2(v int) int {
	if v <= 1 {
		return 1
	}
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}

// canvasWidth picks the initial square-ish canvas width for n images whose
// widest is maxW, capped at MaxCanvasSize.
func canvasWidth(maxW, n int) int {
	w := nextPow2(maxW * int(math.Ceil(math.Sqrt(float64(n)))))
	if w > MaxCanvasSize {
		return MaxCanvasSize
	}
	return w
}

// shelfPack places the images left to right in horizontal shelves, tallest
// images first, starting a new shelf whenever the current row would
// overflow the canvas width. Returns one region per input image (input
// order) and the final canvas height rounded up to a power of two.
func shelfPack(images []*texture.Image, canvasW int) ([]Region, int) {
	order := make([]int, len(images))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return images[order[a]].H > images[order[b]].H
	})

	regions := make([]Region, len(images))
	curX, curY, shelfH := 0, 0, 0
	for _, idx := range order {
		w, h := images[idx].W, images[idx].H
		if curX+w > canvasW {
			curY += shelfH
			curX, shelfH = 0, 0
		}
		regions[idx] = Region{X: curX, Y: curY, W: w, H: h}
		curX += w
		if h > shelfH {
			shelfH = h
		}
	}
	return regions, nextPow2(curY + shelfH)
}

// blit copies every image into its region of the RGBA8 canvas buffer.
func blit(canvas []byte, canvasW int, images []*texture.Image, regions []Region) {
	for i, img := range images {
		reg := regions[i]
		for row := 0; row < reg.H; row++ {
			dst := ((reg.Y+row)*canvasW + reg.X) * 4
			src := row * reg.W * 4
			copy(canvas[dst:dst+reg.W*4], img.Pix[src:src+reg.W*4])
		}
	}
}
