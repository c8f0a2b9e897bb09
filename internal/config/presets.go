package config

var Presets = map[string]*Run{
	"dosing": {
		Model:  "twocomp",
		Scheme: "dopri45",
		Params: map[string]float64{"CL": 10, "Q": 13, "Vc": 20, "Vp": 73, "ka": 3},
		Output: OutputGrid{From: 0, To: 150, Step: 0.5},
		AbsTol: 1e-8,
		RelTol: 1e-6,
		HMin:   1e-10,
		HMax:   1.0,
	},
	"damped": {
		Model:   "oscillator",
		Scheme:  "dopri45",
		Params:  map[string]float64{"theta": 0.15},
		Initial: map[string]float64{"position": 1},
		Output:  OutputGrid{From: 1, To: 100, Step: 0.25},
		AbsTol:  1e-8,
		RelTol:  1e-6,
		HMin:    1e-10,
		HMax:    1.0,
	},
	"halflife": {
		Model:   "decay",
		Scheme:  "rk4",
		Params:  map[string]float64{"k": 0.3},
		Initial: map[string]float64{"amount": 100},
		Output:  OutputGrid{From: 0, To: 24, Step: 0.5},
		AbsTol:  1e-8,
		RelTol:  1e-6,
		HMin:    1e-10,
		HMax:    0.5,
	},
}
