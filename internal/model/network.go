package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/i474232898/lstm-weather-forecast/internal/weather"
)

// ErrShapeMismatch is returned when weights or inputs do not match the architecture.
var ErrShapeMismatch = errors.New("shape mismatch")

// Architecture describes the fixed stack:
// LSTM(Units1, sequences) -> LSTM(Units2) -> Dense(Dense, relu) -> Dense(Horizon).
type Architecture struct {
	Timesteps int
	Features  int
	Units1    int
	Units2    int
	Dense     int
	Horizon   int
}

// DefaultArchitecture is the shape the forecast weights were trained with.
var DefaultArchitecture = Architecture{
	Timesteps: weather.LookbackHours,
	Features:  weather.NumFeatures,
	Units1:    64,
	Units2:    64,
	Dense:     128,
	Horizon:   weather.HorizonHours,
}

func (a Architecture) String() string {
	return fmt.Sprintf("%dx%d lstm(%d) lstm(%d) dense(%d) dense(%d)",
		a.Timesteps, a.Features, a.Units1, a.Units2, a.Dense, a.Horizon)
}

// lstmLayer stores Keras-layout weights: kernel is in x 4u, recurrent is
// u x 4u, gates ordered input, forget, cell, output.
type lstmLayer struct {
	units     int
	kernel    *mat.Dense
	recurrent *mat.Dense
	bias      *mat.VecDense
}

func newLSTMLayer(in, units int) lstmLayer {
	return lstmLayer{
		units:     units,
		kernel:    mat.NewDense(in, 4*units, nil),
		recurrent: mat.NewDense(units, 4*units, nil),
		bias:      mat.NewVecDense(4*units, nil),
	}
}

// lstmState is per-call scratch space.
type lstmState struct {
	h, c, z, r *mat.VecDense
}

func (l *lstmLayer) newState() *lstmState {
	return &lstmState{
		h: mat.NewVecDense(l.units, nil),
		c: mat.NewVecDense(l.units, nil),
		z: mat.NewVecDense(4*l.units, nil),
		r: mat.NewVecDense(4*l.units, nil),
	}
}

func (l *lstmLayer) step(s *lstmState, x mat.Vector) {
	s.z.MulVec(l.kernel.T(), x)
	s.r.MulVec(l.recurrent.T(), s.h)
	s.z.AddVec(s.z, s.r)
	s.z.AddVec(s.z, l.bias)

	u := l.units
	for j := 0; j < u; j++ {
		i := sigmoid(s.z.AtVec(j))
		f := sigmoid(s.z.AtVec(u + j))
		g := math.Tanh(s.z.AtVec(2*u + j))
		o := sigmoid(s.z.AtVec(3*u + j))

		c := f*s.c.AtVec(j) + i*g
		s.c.SetVec(j, c)
		s.h.SetVec(j, o*math.Tanh(c))
	}
}

type denseLayer struct {
	kernel *mat.Dense
	bias   *mat.VecDense
	relu   bool
}

func newDenseLayer(in, out int, relu bool) denseLayer {
	return denseLayer{
		kernel: mat.NewDense(in, out, nil),
		bias:   mat.NewVecDense(out, nil),
		relu:   relu,
	}
}

func (d *denseLayer) apply(x mat.Vector) *mat.VecDense {
	_, n := d.kernel.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(d.kernel.T(), x)
	out.AddVec(out, d.bias)
	if d.relu {
		for i := 0; i < n; i++ {
			if out.AtVec(i) < 0 {
				out.SetVec(i, 0)
			}
		}
	}
	return out
}

// Network is the inference-only forward pass. Weights are read-only after
// loading, so Predict may be called concurrently.
type Network struct {
	arch   Architecture
	lstm1  lstmLayer
	lstm2  lstmLayer
	hidden denseLayer
	output denseLayer
}

// NewNetwork allocates zeroed weights for arch.
func NewNetwork(arch Architecture) (*Network, error) {
	if arch.Timesteps <= 0 || arch.Features <= 0 || arch.Units1 <= 0 ||
		arch.Units2 <= 0 || arch.Dense <= 0 || arch.Horizon <= 0 {
		return nil, fmt.Errorf("%w: invalid architecture %s", ErrShapeMismatch, arch)
	}
	return &Network{
		arch:   arch,
		lstm1:  newLSTMLayer(arch.Features, arch.Units1),
		lstm2:  newLSTMLayer(arch.Units1, arch.Units2),
		hidden: newDenseLayer(arch.Units2, arch.Dense, true),
		output: newDenseLayer(arch.Dense, arch.Horizon, false),
	}, nil
}

// Architecture returns the network shape.
func (n *Network) Architecture() Architecture { return n.arch }

// Predict runs the window through the network. Dropout layers are identity
// at inference and are not represented.
func (n *Network) Predict(ctx context.Context, window [][]float64) ([]float64, error) {
	if len(window) != n.arch.Timesteps {
		return nil, fmt.Errorf("%w: window has %d timesteps, want %d", ErrShapeMismatch, len(window), n.arch.Timesteps)
	}

	s1 := n.lstm1.newState()
	s2 := n.lstm2.newState()

	for t, row := range window {
		if len(row) != n.arch.Features {
			return nil, fmt.Errorf("%w: timestep %d has %d features, want %d", ErrShapeMismatch, t, len(row), n.arch.Features)
		}
		if t%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		n.lstm1.step(s1, mat.NewVecDense(len(row), row))
		n.lstm2.step(s2, s1.h)
	}

	h := n.hidden.apply(s2.h)
	y := n.output.apply(h)

	out := make([]float64, n.arch.Horizon)
	for i := range out {
		out[i] = y.AtVec(i)
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

var _ weather.Regressor = (*Network)(nil)
