package nativeext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tako0614/takomusic/internal/value"
)

func TestLinearFitFitsAStraightLine(t *testing.T) {
	pts := value.NewArray()
	for i := 0; i < 5; i++ {
		obj := value.NewObject()
		obj.Set("t", value.Number(float64(i)))
		obj.Set("v", value.Number(float64(2*i+1)))
		pts.Elements = append(pts.Elements, value.ObjectValue{Object: obj})
	}
	fn := LinearFit()
	out, err := fn.Native([]value.Value{value.ArrayValue{Array: pts}}, nil)
	require.NoError(t, err)
	curve, ok := out.(value.CurveValue)
	require.True(t, ok)
	require.Len(t, curve.Points, 2)
	assert.InDelta(t, 1.0, curve.Points[0].V, 0.01)
	assert.InDelta(t, 9.0, curve.Points[1].V, 0.01)
}
