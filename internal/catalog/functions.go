package catalog

import "math"

// scaled maps raw function outputs from [rawMin, rawMax] (the observed range
// over the evaluation window) onto [0, 2].
func scaled(rawMin, rawMax float64, f func(x, y float64) float64) func(p []float64) float64 {
	scale := 2.0 / (rawMax - rawMin)
	return func(p []float64) float64 {
		return (f(p[0], p[1]) - rawMin) * scale
	}
}

func hypot(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}

func square(d Bounds) Domain { return Domain{X: d, Y: d} }

// langermannSum builds a Langermann landscape from its weight vector and
// anchor points.
func langermannSum(c []float64, a [][2]float64) func(x, y float64) float64 {
	return func(x, y float64) float64 {
		var sum float64
		for i, ci := range c {
			dx := x - a[i][0]
			dy := y - a[i][1]
			inner := dx*dx + dy*dy
			sum += ci * math.Exp(-inner/math.Pi) * math.Cos(math.Pi*inner)
		}
		return sum
	}
}

// gramacyLee is the 1D Gramacy & Lee ridge, guarded at the origin where
// sin(10*pi*v)/(2v) is removable.
func gramacyLee(v float64) float64 {
	t1 := 1.0
	if math.Abs(v) >= 1e-8 {
		t1 = math.Sin(10*math.Pi*v) / (2 * v)
	}
	t2 := v - 1
	return t1 + t2*t2*t2*t2
}

func shubertSum(v float64) float64 {
	var sum float64
	for i := 1.0; i <= 5; i++ {
		sum += i * math.Cos((i+1)*v+i)
	}
	return sum
}

func init() {
	register(Function{
		ID: "Ackley",
		Eval: scaled(-0.1247, 9.1874, func(x, y float64) float64 {
			const a, b, c = 10.0, 0.1, 2 * math.Pi
			sumSq := x*x + y*y
			sumCos := math.Cos(c*x) + math.Cos(c*y)
			return -a*math.Exp(-b*math.Sqrt(sumSq/2)) - math.Exp(sumCos/2) + a + math.E
		}),
		Domain:   square(Bounds{-10, 10}),
		Start:    [2]float64{7.6, 8.4},
		Minima:   [][2]float64{{0, 0}},
		MinValue: 0.0268,
	})

	register(Function{
		ID: "Beale",
		Eval: scaled(4.929331043967977e-05, 383574.0625, func(x, y float64) float64 {
			t1 := 1.5 - x + x*y
			t2 := 2.25 - x + x*y*y
			t3 := 2.625 - x + x*y*y*y
			return t1*t1 + t2*t2 + t3*t3
		}),
		Domain:   square(Bounds{-4.5, 4.5}),
		Start:    [2]float64{1.0, 1.0},
		Minima:   [][2]float64{{3, 0.5}},
		MinValue: 0,
	})

	register(Function{
		ID: "CrossInTray",
		Eval: scaled(-2.0625362396240234, -0.10158146172761917, func(x, y float64) float64 {
			fact1 := math.Sin(x) * math.Sin(y)
			r := hypot(x, y)
			fact2 := math.Exp(math.Abs(100.0 - r/math.Pi))
			return -1e-4 * math.Pow(math.Abs(fact1*fact2)+1.0, 0.1)
		}),
		Domain: square(Bounds{-22, 22}),
		Start:  [2]float64{16.6, 21.3},
		Minima: [][2]float64{
			{1.3491, 1.3491}, {-1.3491, 1.3491}, {1.3491, -1.3491}, {-1.3491, -1.3491},
		},
		MinValue: -0.0001,
	})

	register(Function{
		ID: "DropWave",
		Eval: scaled(-0.9469, -2.6508e-08, func(x, y float64) float64 {
			r2 := x*x + y*y
			return -(1 + math.Cos(12*math.Sqrt(r2))) / (0.5*r2 + 2)
		}),
		Domain:   square(Bounds{-5.9, 5.9}),
		Start:    [2]float64{4.2, 5.1},
		Minima:   [][2]float64{{0, 0}},
		MinValue: -0.1122,
	})

	register(Function{
		ID: "EggHolder",
		// Coordinates are scaled so the classic +/-512 landscape fits a
		// +/-13 window.
		Eval: scaled(-1454.9971923828125, 1296.7808837890625, func(x, y float64) float64 {
			x1 := x * 51.2
			x2 := y * 51.2
			t1 := -(x2 + 47) * math.Sin(math.Sqrt(math.Abs(x2+x1/2+47)))
			t2 := -x1 * math.Sin(math.Sqrt(math.Abs(x1-(x2+47))))
			return t1 + t2
		}),
		Domain: square(Bounds{-13, 13}),
		Start:  [2]float64{0.9294921875, 0.9490234375},
		Minima: [][2]float64{
			{10.0, 7.8}, {10.4, -11.9}, {-11.5, -12.0}, {-11.5, 4.8},
		},
		MinValue: 0.2649,
	})

	register(Function{
		ID: "GoldsteinPrice",
		Eval: scaled(3.0231451988220215, 1457606.625, func(x, y float64) float64 {
			f1a := (x + y + 1) * (x + y + 1)
			f1b := 19 - 14*x + 3*x*x - 14*y + 6*x*y + 3*y*y
			f2a := (2*x - 3*y) * (2*x - 3*y)
			f2b := 18 - 32*x + 12*x*x + 48*y - 36*x*y + 27*y*y
			return (1 + f1a*f1b) * (30 + f2a*f2b)
		}),
		Domain:   square(Bounds{-2, 2}),
		Start:    [2]float64{-1.8, 1.8},
		Minima:   [][2]float64{{0, -1}},
		MinValue: 0,
	})

	register(Function{
		ID: "GradientLabyrinth",
		// A rotated sine-wave valley with a corrugated floor. The 45 degree
		// rotation couples the coordinates, so axis-aligned steps fight the
		// walls.
		Eval: scaled(0.010224738158285618, 24200.607421875, func(x, y float64) float64 {
			const (
				wall  = 100.0
				trend = 0.05
				depth = 2.0
				freq  = 4.0
			)
			s, c := math.Sincos(math.Pi / 4)
			u := x*c - y*s
			v := x*s + y*c
			md := v - math.Sin(u)
			valley := wall * md * md
			pull := trend * u * u
			bumps := depth * (1 - math.Cos(freq*u)*math.Cos(freq*v))
			return valley + pull + bumps
		}),
		Domain:   square(Bounds{-16, 16}),
		Start:    [2]float64{-12.2, 14.0},
		Minima:   [][2]float64{{0, 0}},
		MinValue: 0,
	})

	register(Function{
		ID: "GramacyLee2D",
		Eval: scaled(-5.7327399253845215, 32.99244689941406, func(x, y float64) float64 {
			return gramacyLee(x) + gramacyLee(y)
		}),
		Domain:   square(Bounds{-0.8, 2.5}),
		Start:    [2]float64{1.8, 2.48},
		Minima:   [][2]float64{{0.14166, 0.14166}},
		MinValue: 0,
	})

	register(Function{
		ID: "Griewank",
		Eval: scaled(0.029671549797058105, 218.95753479003906, func(x, y float64) float64 {
			x *= 10
			y *= 10
			sum := (x*x + y*y) / 4000.0
			prod := math.Cos(x) * math.Cos(y/math.Sqrt2)
			return sum - prod + 1.0
		}),
		Domain:   square(Bounds{-60, 60}),
		Start:    [2]float64{-57.0, -42.6},
		Minima:   [][2]float64{{0, 0}},
		MinValue: -0.0003,
	})

	register(Function{
		ID: "HolderTable",
		Eval: scaled(-159.3212127685547, -4.803488263860345e-05, func(x, y float64) float64 {
			fact1 := math.Sin(x) * math.Cos(y)
			fact2 := math.Exp(math.Abs(1 - hypot(x, y)/math.Pi))
			return -math.Abs(fact1 * fact2)
		}),
		Domain: Domain{X: Bounds{-14, 14}, Y: Bounds{-12, 12}},
		Start:  [2]float64{-0.001, 0.001},
		Minima: [][2]float64{
			{-14.3772, -12.76168}, {-14.3772, 12.76168},
			{14.3772, -12.76168}, {14.3772, 12.76168},
		},
		MinValue: 0,
	})

	register(Function{
		ID: "Langermann",
		Eval: scaled(-4.155096530914307, 5.160184860229492, langermannSum(
			[]float64{1, 2, 5, 2, 3},
			[][2]float64{{3, 5}, {5, 2}, {2, 1}, {1, 4}, {7, 9}},
		)),
		Domain:   square(Bounds{0, 10}),
		Start:    [2]float64{4.6, 6.7},
		Minima:   [][2]float64{{2.7927, 1.6016}},
		MinValue: 0,
	})

	register(Function{
		ID: "Langermann2",
		// A denser anchor set over a slightly offset window.
		Eval: scaled(-4.629549026489258, 5.470799446105957, langermannSum(
			[]float64{2.5, 2.0, 1.0, 1.5, 3.0, 2.0, 2.5, 2.0, 5.0, 2.2},
			[][2]float64{
				{3, 5}, {5, 2}, {2, 1}, {1, 4}, {7, 9},
				{9, 1}, {6, 6}, {4.5, 8}, {8, 3}, {2.5, 7.5},
			},
		)),
		Domain:   Domain{X: Bounds{-1.5, 12}, Y: Bounds{-2, 12}},
		Start:    [2]float64{3.8, 10},
		Minima:   [][2]float64{{7.6557745933532715, 2.076188087463379}},
		MinValue: 0,
	})

	register(Function{
		ID: "Levy",
		Eval: scaled(1.3266e-05, 109.8625, func(x, y float64) float64 {
			w1 := 1 + (x-1)/4
			w2 := 1 + (y-1)/4
			s1 := math.Sin(math.Pi * w1)
			sm := math.Sin(math.Pi*w1 + 1)
			s2 := math.Sin(2 * math.Pi * w2)
			return s1*s1 +
				(w1-1)*(w1-1)*(1+10*sm*sm) +
				(w2-1)*(w2-1)*(1+s2*s2)
		}),
		Domain:   square(Bounds{-10, 10}),
		Start:    [2]float64{-9.5, -7.7},
		Minima:   [][2]float64{{1, 1}},
		MinValue: 0,
	})

	register(Function{
		ID: "Levy13",
		Eval: scaled(0.0008289171382784843, 539.6259765625, func(x, y float64) float64 {
			s3x := math.Sin(3 * math.Pi * x)
			s3y := math.Sin(3 * math.Pi * y)
			s2y := math.Sin(2 * math.Pi * y)
			return s3x*s3x + (x-1)*(x-1)*(1+s3y*s3y) + (y-1)*(y-1)*(1+s2y*s2y)
		}),
		Domain:   square(Bounds{-10, 10}),
		Start:    [2]float64{-9.5, -7.7},
		Minima:   [][2]float64{{1, 1}},
		MinValue: 0,
	})

	register(Function{
		ID: "MixedMichalewiczSphere",
		Eval: scaled(-1.5200809240341187, 8.869929313659668, func(x, y float64) float64 {
			const (
				alpha       = 0.95
				sphereScale = 0.6
			)
			mich := 0.0
			for i, v := range [2]float64{x, y} {
				inner := math.Sin(float64(i+1) * v * v / math.Pi)
				mich += math.Sin(v) * inner * inner * inner * inner
			}
			return alpha*(-mich) + (1-alpha)*sphereScale*(x*x+y*y)
		}),
		Domain:   square(Bounds{-10, 10}),
		Start:    [2]float64{9, 9},
		Minima:   [][2]float64{{2.1268880367279053, 1.5619332790374756}},
		MinValue: 0,
	})

	register(Function{
		ID: "NeuralCanyon",
		// A tanh-shaped valley under high-frequency cosine noise, the kind
		// of surface saturating activations produce.
		Eval: scaled(-0.7994629144668579, 2888.94384765625, func(x, y float64) float64 {
			const (
				wall = 30.0
				bias = 0.005
				amp  = 1.8
				freq = 25.0
			)
			d := y - math.Tanh(x)
			r2 := x*x + y*y
			return wall*d*d + bias*r2 -
				amp*math.Exp(-0.1*r2)*math.Cos(freq*x)*math.Cos(freq*y)
		}),
		Domain:   square(Bounds{-8, 8}),
		Start:    [2]float64{-4.5, 3.5},
		Minima:   [][2]float64{{0, 0}},
		MinValue: -0.0007,
	})

	register(Function{
		ID: "QuantumWell",
		// A quadratic basin dug out by a decaying cosine lattice.
		Eval: scaled(-3.9932661056518555, 11.901788711547852, func(x, y float64) float64 {
			const (
				scale = 0.05
				amp   = 4.0
				freq  = 2.5
				decay = 0.15
			)
			r2 := x*x + y*y
			lattice := math.Cos(freq*x) * math.Cos(freq*y)
			return scale*r2 - amp*lattice*math.Exp(-decay*math.Sqrt(r2))
		}),
		Domain:   square(Bounds{-10, 10}),
		Start:    [2]float64{8.2, 7.5},
		Minima:   [][2]float64{{0, 0}},
		MinValue: -0.0008,
	})

	register(Function{
		ID: "Rastrigin",
		Eval: scaled(0.6358, 305.3365, func(x, y float64) float64 {
			return 20 + (x*x - 10*math.Cos(2*math.Pi*x)) + (y*y - 10*math.Cos(2*math.Pi*y))
		}),
		Domain:   square(Bounds{-10, 10}),
		Start:    [2]float64{-8.2, 7.7},
		Minima:   [][2]float64{{0, 0}},
		MinValue: -0.0042,
	})

	register(Function{
		ID: "Rosenbrock",
		Eval: scaled(0.0032, 4855.7202, func(x, y float64) float64 {
			const a = 100.0
			d := y - x*x
			return a*d*d + (x-1)*(x-1)
		}),
		Domain:   Domain{X: Bounds{-2.1, 2.1}, Y: Bounds{-1.1, 3.1}},
		Start:    [2]float64{-2.0, 2.0},
		Minima:   [][2]float64{{1, 1}},
		MinValue: 0,
	})

	register(Function{
		ID: "Schaffer2",
		Eval: scaled(8.0585e-05, 0.9961, func(x, y float64) float64 {
			x *= 5
			y *= 5
			num := math.Sin(x*x-y*y)*math.Sin(x*x-y*y) - 0.5
			den := (1 + 0.001*(x*x+y*y)) * (1 + 0.001*(x*x+y*y))
			return 0.5 + num/den
		}),
		Domain:   square(Bounds{-10, 10}),
		Start:    [2]float64{8.2, 8.4},
		Minima:   [][2]float64{{0, 0}},
		MinValue: -0.0002,
	})

	register(Function{
		ID: "Schaffer4",
		Eval: scaled(-0.2065865695476532, 0.5, func(x, y float64) float64 {
			x *= 5
			y *= 5
			c := math.Cos(math.Sin(math.Abs(x*x - y*y)))
			den := 1 + 0.001*(x*x+y*y)
			return (c*c - 0.5) / (den * den)
		}),
		Domain: square(Bounds{-10, 10}),
		Start:  [2]float64{8.2, 8.4},
		Minima: [][2]float64{
			{0, 0.125}, {0, -0.125}, {0.125, 0}, {-0.125, 0},
		},
		MinValue: 1.6083,
	})

	register(Function{
		ID: "SchwefelSin",
		// Coordinates are scaled so the classic +/-500 landscape fits a
		// +/-23 window.
		Eval: scaled(-1114.2998046875, 1114.2998046875, func(x, y float64) float64 {
			const scale = 500.0 / 20.0
			x *= scale
			y *= scale
			return -(x*math.Sin(math.Sqrt(math.Abs(x))) + y*math.Sin(math.Sqrt(math.Abs(y))))
		}),
		Domain: square(Bounds{-23, 23}),
		Start:  [2]float64{-5, 4},
		Minima: [][2]float64{
			{-22.37689208984375, -22.37689208984375},
			{-22.37689208984375, 16.8},
			{16.8, -22.37689208984375},
		},
		MinValue: 0,
	})

	register(Function{
		ID: "Shubert",
		Eval: scaled(-186.72389221191406, 210.48094177246094, func(x, y float64) float64 {
			return shubertSum(x) * shubertSum(y)
		}),
		Domain: square(Bounds{-10, 10}),
		Start:  [2]float64{1.81, 1.82},
		Minima: [][2]float64{
			{-7.7778, -7.1717}, {-7.7778, -0.9091}, {-7.7778, 5.3535},
			{-6.9697, -7.7778}, {-6.9697, -1.5152}, {-6.9697, 4.7475},
			{-1.5152, -7.1717}, {-1.5152, -0.9091}, {-1.5152, 5.3535},
			{-0.7071, -7.7778}, {-0.7071, -1.5152}, {-0.7071, 4.7475},
			{4.7475, -7.1717}, {4.7475, -0.9091}, {4.7475, 5.5556},
			{5.5556, -7.7778}, {5.5556, -1.5152}, {5.5556, 4.7475},
		},
		MinValue: 0.1090,
	})

	register(Function{
		ID: "Sphere",
		Eval: func(p []float64) float64 {
			return p[0]*p[0] + p[1]*p[1]
		},
		Domain:   square(Bounds{-15, 15}),
		Start:    [2]float64{10, 10},
		Minima:   [][2]float64{{0, 0}},
		MinValue: 0,
	})

	register(Function{
		ID: "StyblinskiTang",
		Eval: scaled(-78.3310, 750, func(x, y float64) float64 {
			tx := x*x*x*x - 16*x*x + 5*x
			ty := y*y*y*y - 16*y*y + 5*y
			return (tx + ty) / 2.0
		}),
		Domain:   square(Bounds{-5, 5}),
		Start:    [2]float64{4.45, 4.1},
		Minima:   [][2]float64{{-2.903534, -2.903534}},
		MinValue: 0,
	})

	register(Function{
		ID: "Weierstrass",
		// Coordinates are squeezed into [1-1, 1+1] so the classic fractal
		// stays resolvable over a +/-13 window.
		Eval: scaled(0.149155855178833, 7.9263105392456055, func(x, y float64) float64 {
			const a, b = 0.5, 3.0
			var total float64
			for _, v := range [2]float64{x, y} {
				vs := 2*(v/26) + 1
				ak, bk := 1.0, 1.0
				for k := 0; k <= 20; k++ {
					total += ak * math.Cos(math.Pi*bk*vs)
					ak *= a
					bk *= b
				}
			}
			return total
		}),
		Domain:   square(Bounds{-13, 13}),
		Start:    [2]float64{-12, -11},
		Minima:   [][2]float64{{0, 0}},
		MinValue: -1.0670,
	})
}
