package scene

// Projector maps between 2D pixel coordinates and 3D world coordinates for
// a depth-enabled View, using a pinhole camera model.
type Projector struct {
	FX, FY float32 // focal lengths in pixels
	CX, CY float32 // principal point in pixels
	ZScale float32 // metres per depth unit (applies when converting DEPTH16 <-> DEPTHF)
}

// NewProjector builds a Projector with sane defaults (unit scale, centred
// principal point) for a frame of the given size.
func NewProjector(frameW, frameH int, fx, fy float32) Projector {
	return Projector{FX: fx, FY: fy, CX: float32(frameW) / 2, CY: float32(frameH) / 2, ZScale: 1}
}

// Deproject converts a pixel (x, y) at the given depth z (meters) into a 3D
// point in camera space.
func (p Projector) Deproject(x, y int, z float32) [3]float32 {
	if p.FX == 0 || p.FY == 0 {
		return [3]float32{0, 0, z}
	}
	px := (float32(x) - p.CX) * z / p.FX
	py := (float32(y) - p.CY) * z / p.FY
	return [3]float32{px, py, z}
}

// Project converts a 3D camera-space point back into pixel coordinates.
func (p Projector) Project(pt [3]float32) (x, y int) {
	if pt[2] == 0 || p.FX == 0 || p.FY == 0 {
		return int(p.CX), int(p.CY)
	}
	x = int(pt[0]*p.FX/pt[2] + p.CX)
	y = int(pt[1]*p.FY/pt[2] + p.CY)
	return x, y
}
