package slides

// Structural similarity over non-overlapping tiles. The score for a pair of
// rasters is the mean of the per-tile SSIM values; tiles keep the comparison
// sensitive to local structure (a swapped diagram region) that global
// statistics would wash out.

const (
	ssimTileSize = 8
	// Stabilizing constants for an 8-bit dynamic range (L=255):
	// C1=(0.01*L)^2, C2=(0.03*L)^2.
	ssimC1 = 6.5025
	ssimC2 = 58.5225
)

// SSIM computes the mean structural similarity of two rasters of identical
// size. The result is clamped to [0,1]; negative local scores (inverted
// structure) count as zero similarity.
func SSIM(a, b *Raster) float64 {
	if a.Width != b.Width || a.Height != b.Height {
		return 0
	}

	var total float64
	var tiles int

	for ty := 0; ty < a.Height; ty += ssimTileSize {
		th := min(ssimTileSize, a.Height-ty)
		for tx := 0; tx < a.Width; tx += ssimTileSize {
			tw := min(ssimTileSize, a.Width-tx)
			total += tileSSIM(a, b, tx, ty, tw, th)
			tiles++
		}
	}
	if tiles == 0 {
		return 0
	}

	score := total / float64(tiles)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func tileSSIM(a, b *Raster, tx, ty, tw, th int) float64 {
	n := float64(tw * th)

	var sumA, sumB float64
	for y := ty; y < ty+th; y++ {
		row := y * a.Width
		for x := tx; x < tx+tw; x++ {
			sumA += a.Pix[row+x]
			sumB += b.Pix[row+x]
		}
	}
	meanA := sumA / n
	meanB := sumB / n

	var varA, varB, cov float64
	for y := ty; y < ty+th; y++ {
		row := y * a.Width
		for x := tx; x < tx+tw; x++ {
			da := a.Pix[row+x] - meanA
			db := b.Pix[row+x] - meanB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= n
	varB /= n
	cov /= n

	numerator := (2*meanA*meanB + ssimC1) * (2*cov + ssimC2)
	denominator := (meanA*meanA + meanB*meanB + ssimC1) * (varA + varB + ssimC2)
	return numerator / denominator
}
