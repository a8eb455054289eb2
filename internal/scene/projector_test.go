package scene

import "testing"

func TestProjectorDeprojectProjectRoundTrip(t *testing.T) {
	p := NewProjector(640, 480, 500, 500)
	pt := p.Deproject(400, 200, 2.5)
	x, y := p.Project(pt)
	if x != 400 || y != 200 {
		t.Errorf("round trip = (%d,%d), want (400,200)", x, y)
	}
}

func TestProjectorDeprojectZeroFocalFallsBackToDepthOnly(t *testing.T) {
	p := Projector{}
	pt := p.Deproject(10, 10, 5)
	if pt != [3]float32{0, 0, 5} {
		t.Errorf("Deproject with zero focal length = %v, want {0,0,5}", pt)
	}
}

func TestProjectorProjectZeroDepthReturnsPrincipalPoint(t *testing.T) {
	p := NewProjector(100, 100, 50, 50)
	x, y := p.Project([3]float32{1, 1, 0})
	if x != int(p.CX) || y != int(p.CY) {
		t.Errorf("Project with zero depth = (%d,%d), want principal point (%d,%d)", x, y, int(p.CX), int(p.CY))
	}
}
