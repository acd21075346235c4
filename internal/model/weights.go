package model

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Weights file layout, little endian:
//
//	magic   [4]byte "LSTW"
//	version uint32  (1)
//	shape   6 x uint32: timesteps, features, units1, units2, dense, horizon
//	tensors float32, row-major, in Keras get_weights() order:
//	        lstm1 kernel, recurrent, bias; lstm2 kernel, recurrent, bias;
//	        dense kernel, bias; output kernel, bias
const weightsVersion = 1

var weightsMagic = [4]byte{'L', 'S', 'T', 'W'}

type weightsHeader struct {
	Magic     [4]byte
	Version   uint32
	Timesteps uint32
	Features  uint32
	Units1    uint32
	Units2    uint32
	Dense     uint32
	Horizon   uint32
}

func (h weightsHeader) architecture() Architecture {
	return Architecture{
		Timesteps: int(h.Timesteps),
		Features:  int(h.Features),
		Units1:    int(h.Units1),
		Units2:    int(h.Units2),
		Dense:     int(h.Dense),
		Horizon:   int(h.Horizon),
	}
}

// tensors lists the backing slices of every weight in file order.
func (n *Network) tensors() [][]float64 {
	return [][]float64{
		n.lstm1.kernel.RawMatrix().Data,
		n.lstm1.recurrent.RawMatrix().Data,
		n.lstm1.bias.RawVector().Data,
		n.lstm2.kernel.RawMatrix().Data,
		n.lstm2.recurrent.RawMatrix().Data,
		n.lstm2.bias.RawVector().Data,
		n.hidden.kernel.RawMatrix().Data,
		n.hidden.bias.RawVector().Data,
		n.output.kernel.RawMatrix().Data,
		n.output.bias.RawVector().Data,
	}
}

// LoadWeights reads a weights file and checks it against the expected architecture.
func LoadWeights(path string, want Architecture) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weights: %w", err)
	}
	defer f.Close()

	n, err := ReadWeights(bufio.NewReader(f), want)
	if err != nil {
		return nil, fmt.Errorf("load weights %s: %w", path, err)
	}
	return n, nil
}

// ReadWeights decodes a weights stream. Any difference between the stored
// shape and want fails with ErrShapeMismatch.
func ReadWeights(r io.Reader, want Architecture) (*Network, error) {
	var h weightsHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if h.Magic != weightsMagic {
		return nil, fmt.Errorf("not a weights file (magic %q)", h.Magic[:])
	}
	if h.Version != weightsVersion {
		return nil, fmt.Errorf("unsupported weights version %d", h.Version)
	}
	if got := h.architecture(); got != want {
		return nil, fmt.Errorf("%w: file is %s, expected %s", ErrShapeMismatch, got, want)
	}

	n, err := NewNetwork(want)
	if err != nil {
		return nil, err
	}

	for i, dst := range n.tensors() {
		buf := make([]float32, len(dst))
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: tensor %d truncated", ErrShapeMismatch, i)
			}
			return nil, fmt.Errorf("read tensor %d: %w", i, err)
		}
		for j, v := range buf {
			dst[j] = float64(v)
		}
	}

	var extra [1]byte
	if _, err := io.ReadFull(r, extra[:]); err == nil {
		return nil, fmt.Errorf("%w: trailing data after last tensor", ErrShapeMismatch)
	}
	return n, nil
}

// WriteWeights encodes the network in the format ReadWeights expects.
func WriteWeights(w io.Writer, n *Network) error {
	a := n.arch
	h := weightsHeader{
		Magic:     weightsMagic,
		Version:   weightsVersion,
		Timesteps: uint32(a.Timesteps),
		Features:  uint32(a.Features),
		Units1:    uint32(a.Units1),
		Units2:    uint32(a.Units2),
		Dense:     uint32(a.Dense),
		Horizon:   uint32(a.Horizon),
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return err
	}
	for _, src := range n.tensors() {
		buf := make([]float32, len(src))
		for j, v := range src {
			buf[j] = float32(v)
		}
		if err := binary.Write(bw, binary.LittleEndian, buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
