package regrid

import (
	"fmt"
	"math"
)

// NetCDF default fill values for the supported field kinds. Callers
// typically pre-fill destination fields with these so that points the
// regridder cannot locate keep a recognizable sentinel.
const (
	FillDouble = 9.9692099683868690e+36
	FillFloat  = float32(9.9692099683868690e+36)
	FillInt    = int32(-2147483647)
	FillShort  = int16(-32767)
	FillByte   = int8(-127)
)

// FillValueFor returns the conventional fill value for a field slice
// type: []float64, []float32, []int32, []int16, or []int8.
func FillValueFor(field any) (any, error) {
	switch field.(type) {
	case []float64:
		return FillDouble, nil
	case []float32:
		return FillFloat, nil
	case []int32:
		return FillInt, nil
	case []int16:
		return FillShort, nil
	case []int8:
		return FillByte, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, field)
}

// Apply interpolates src onto dst using the stencil table from the
// last ComputeWeights call. Both fields are flat row-major slices of
// the same element type ([]float64, []float32, or []int32) shaped like
// their grids. Destination points without a valid stencil are not
// written, so pre-existing values (typically a fill sentinel) survive.
func (op *Operator) Apply(src, dst any) error {
	switch s := src.(type) {
	case []float64:
		d, ok := dst.([]float64)
		if !ok {
			return mixedTypeErr(src, dst)
		}
		if err := op.checkShapes(len(s), len(d)); err != nil {
			return err
		}
		applyStencils(op.stencils, s, d)
	case []float32:
		d, ok := dst.([]float32)
		if !ok {
			return mixedTypeErr(src, dst)
		}
		if err := op.checkShapes(len(s), len(d)); err != nil {
			return err
		}
		applyStencils(op.stencils, s, d)
	case []int32:
		d, ok := dst.([]int32)
		if !ok {
			return mixedTypeErr(src, dst)
		}
		if err := op.checkShapes(len(s), len(d)); err != nil {
			return err
		}
		applyStencilsInt(op.stencils, s, d)
	default:
		return fmt.Errorf("%w: source field %T", ErrUnsupportedType, src)
	}
	return nil
}

func mixedTypeErr(src, dst any) error {
	return fmt.Errorf("%w: source %T with destination %T", ErrUnsupportedType, src, dst)
}

func (op *Operator) checkShapes(nsrc, ndst int) error {
	if nsrc != op.src.Size() {
		return fmt.Errorf("%w: source field has %d values, grid %v has %d points",
			ErrShapeMismatch, nsrc, op.src.dims, op.src.Size())
	}
	if ndst != op.dst.Size() {
		return fmt.Errorf("%w: destination field has %d values, grid %v has %d points",
			ErrShapeMismatch, ndst, op.dst.dims, op.dst.Size())
	}
	return nil
}

// applyStencils accumulates each weighted sum in float64 and converts
// once per destination point.
func applyStencils[T float32 | float64](st []*stencil, src, dst []T) {
	for d, s := range st {
		if s == nil {
			continue
		}
		var sum float64
		for k, idx := range s.inds {
			sum += s.wts[k] * float64(src[idx])
		}
		dst[d] = T(sum)
	}
}

// applyStencilsInt rounds to nearest rather than truncating, so an
// integer field regridded onto itself survives unchanged.
func applyStencilsInt(st []*stencil, src, dst []int32) {
	for d, s := range st {
		if s == nil {
			continue
		}
		var sum float64
		for k, idx := range s.inds {
			sum += s.wts[k] * float64(src[idx])
		}
		dst[d] = int32(math.Round(sum))
	}
}
