package calib

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Calibration arrays are stored as little-endian float64 BLOBs; dimensions
// live in their own columns so the blobs stay self-describing.

func encodeFloats(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte, n int) ([]float64, error) {
	if len(buf) != 8*n {
		return nil, fmt.Errorf("calib: blob holds %d bytes, want %d", len(buf), 8*n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}

func encodeMatrix(m [][]float64) []byte {
	if len(m) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(m)*len(m[0]))
	for _, row := range m {
		flat = append(flat, row...)
	}
	return encodeFloats(flat)
}

func decodeMatrix(buf []byte, rows, cols int) ([][]float64, error) {
	flat, err := decodeFloats(buf, rows*cols)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, rows)
	for r := range out {
		out[r] = flat[r*cols : (r+1)*cols]
	}
	return out, nil
}

func encodePositions(ps []Position) []byte {
	flat := make([]float64, 0, 2*len(ps))
	for _, p := range ps {
		flat = append(flat, p.X, p.Y)
	}
	return encodeFloats(flat)
}

func decodePositions(buf []byte, n int) ([]Position, error) {
	flat, err := decodeFloats(buf, 2*n)
	if err != nil {
		return nil, err
	}
	out := make([]Position, n)
	for i := range out {
		out[i] = Position{X: flat[2*i], Y: flat[2*i+1]}
	}
	return out, nil
}
