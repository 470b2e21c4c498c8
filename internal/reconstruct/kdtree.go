package reconstruct

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// sample is one catalog position tagged with its row index so a nearest
// lookup can recover the sample's flux.
type sample struct {
	x, y float64
	idx  int
}

func (s sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(sample)
	switch d {
	case 0:
		return s.x - q.x
	case 1:
		return s.y - q.y
	default:
		panic("illegal dimension")
	}
}

func (s sample) Dims() int { return 2 }

func (s sample) Distance(c kdtree.Comparable) float64 {
	q := c.(sample)
	dx, dy := s.x-q.x, s.y-q.y
	return dx*dx + dy*dy
}

type samples []sample

func (p samples) Index(i int) kdtree.Comparable         { return p[i] }
func (p samples) Len() int                              { return len(p) }
func (p samples) Pivot(d kdtree.Dim) int                { return plane{samples: p, Dim: d}.Pivot() }
func (p samples) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane is a helper that allows the kd-tree to sort samples along an axis.
type plane struct {
	kdtree.Dim
	samples
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.samples[i].x < p.samples[j].x
	case 1:
		return p.samples[i].y < p.samples[j].y
	default:
		panic("illegal dimension")
	}
}

func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.samples = p.samples[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.samples[i], p.samples[j] = p.samples[j], p.samples[i]
}
