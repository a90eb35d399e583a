package evolve

// Score compares two RGBA rasters of identical dimensions and returns a
// normalized fitness value. Both rasters are flat byte slices in RGBA
// order, 4 bytes per pixel, row-major, as produced by [gg.Pixmap.Data]
// or the Pix field of an image.NRGBA.
//
// For every pixel the absolute differences of the red, green and blue
// channels are summed; the alpha channel is deliberately excluded. The
// result is
//
//	1.0 - diff / (width*height*3*256)
//
// which approaches 1.0 for near-identical images. The metric is symmetric
// in its two arguments, deterministic and free of side effects, so it can
// be called concurrently from any number of evaluation slots.
//
// Both slices must hold at least width*height*4 bytes.
func Score(ref, test []uint8, width, height int) float64 {
	n := width * height * 4

	// Bounds hint for the compiler; also catches short inputs early.
	ref = ref[:n]
	test = test[:n]

	var diff int64
	for i := 0; i < n; i += 4 {
		dr := int(test[i+0]) - int(ref[i+0])
		dg := int(test[i+1]) - int(ref[i+1])
		db := int(test[i+2]) - int(ref[i+2])
		if dr < 0 {
			dr = -dr
		}
		if dg < 0 {
			dg = -dg
		}
		if db < 0 {
			db = -db
		}
		diff += int64(dr + dg + db)
	}

	return 1.0 - float64(diff)/(float64(width*height*3)*256)
}
