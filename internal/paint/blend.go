package paint

// Blending works on premultiplied 8-bit channels, the layout of image.RGBA.

// mulDiv255 returns a*b/255 rounded, exact for every byte pair.
func mulDiv255(a, b byte) byte {
	t := uint16(a)*uint16(b) + 1
	return byte((t + (t >> 8)) >> 8)
}

// addClamp adds two channels and saturates at 255.
func addClamp(a, b byte) byte {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return byte(s)
}

// sourceOver composites S over D: S + D*(1-Sa).
func sourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	inv := 255 - sa
	return addClamp(sr, mulDiv255(dr, inv)),
		addClamp(sg, mulDiv255(dg, inv)),
		addClamp(sb, mulDiv255(db, inv)),
		addClamp(sa, mulDiv255(da, inv))
}

// destinationOut keeps D where S is absent: D*(1-Sa). The result never
// exceeds D, so repeated application only ever fades toward transparent.
func destinationOut(sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	inv := 255 - sa
	return mulDiv255(dr, inv),
		mulDiv255(dg, inv),
		mulDiv255(db, inv),
		mulDiv255(da, inv)
}

// premultiply scales a straight-alpha color by coverage and returns
// premultiplied channels.
func premultiply(r, g, b, a byte, coverage float64) (byte, byte, byte, byte) {
	sa := unit8(float64(a) / 255 * coverage)
	return mulDiv255(r, sa), mulDiv255(g, sa), mulDiv255(b, sa), sa
}

// unit8 converts a value in [0,1] to a byte, rounding to nearest.
func unit8(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}
