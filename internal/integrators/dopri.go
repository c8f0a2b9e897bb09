package integrators

import (
	"math"

	"github.com/odelab/odesim/internal/ode"
)

// Dormand-Prince 4(5) coefficients
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DormandPrince is an embedded Runge-Kutta 4(5) pair. The fifth-order
// solution is propagated; the difference against the embedded fourth-order
// solution serves as the local error estimate at no extra stage cost.
type DormandPrince struct{}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{}
}

func (d *DormandPrince) Order() int { return 5 }

func (d *DormandPrince) Step(sys ode.System, t float64, y ode.State, p ode.Params, h float64) ode.State {
	yNew, _ := d.TryStep(sys, t, y, p, h, 1e-8, 1e-6)
	return yNew
}

// TryStep advances y by h and returns the candidate state together with the
// weighted error norm. The caller accepts the candidate when the norm is <= 1.
func (d *DormandPrince) TryStep(sys ode.System, t float64, y ode.State, p ode.Params, h, absTol, relTol float64) (ode.State, float64) {
	n := len(y)

	k1 := sys.Derive(t, y, p)

	y2 := make(ode.State, n)
	for i := 0; i < n; i++ {
		y2[i] = y[i] + h*b21*k1[i]
	}
	k2 := sys.Derive(t+a2*h, y2, p)

	y3 := make(ode.State, n)
	for i := 0; i < n; i++ {
		y3[i] = y[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(t+a3*h, y3, p)

	y4 := make(ode.State, n)
	for i := 0; i < n; i++ {
		y4[i] = y[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(t+a4*h, y4, p)

	y5 := make(ode.State, n)
	for i := 0; i < n; i++ {
		y5[i] = y[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(t+a5*h, y5, p)

	y6 := make(ode.State, n)
	for i := 0; i < n; i++ {
		y6[i] = y[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(t+h, y6, p)

	yNew := make(ode.State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(t+h, yNew, p)

	errNorm := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		sk := absTol + relTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		errNorm = math.Max(errNorm, math.Abs(errEst)/sk)
	}

	return yNew, errNorm
}
