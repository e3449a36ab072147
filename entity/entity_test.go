package entity_test

import (
	"math"
	"testing"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
)

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]entity.Direction{
		"north": entity.NORTH,
		"S":     entity.SOUTH,
		" East": entity.EAST,
		"w":     entity.WEST,
	} {
		d, err := entity.ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d)
	}
	_, err := entity.ParseDirection("up")
	assert.ErrorIs(t, err, entity.ErrUnknownDirection)
}

func TestShortNames(t *testing.T) {
	assert.Equal(t, "n", entity.NORTH.Short())
	assert.Equal(t, "w", entity.WEST.Short())
	assert.Equal(t, "g", entity.GREEN.Short())
	assert.Equal(t, "r", entity.RED.Short())
}

func TestPhaseNext(t *testing.T) {
	assert.Equal(t, entity.YELLOW, entity.GREEN.Next())
	assert.Equal(t, entity.RED, entity.YELLOW.Next())
	assert.Equal(t, entity.GREEN, entity.RED.Next())
}

func TestRectIntersects(t *testing.T) {
	zone := entity.Rect{X: 120, Y: 120, W: 60, H: 20}
	assert.True(t, zone.Intersects(zone))
	assert.True(t, zone.Intersects(entity.Rect{X: 170, Y: 130, W: 30, H: 30}))
	// 边界接触不算重叠
	assert.False(t, zone.Intersects(entity.Rect{X: 180, Y: 120, W: 10, H: 10}))
	assert.False(t, zone.Intersects(entity.Rect{X: 120, Y: 140, W: 10, H: 10}))
	assert.False(t, zone.Intersects(entity.Rect{X: 0, Y: 0, W: 10, H: 10}))
	assert.False(t, zone.Intersects(entity.Rect{X: 130, Y: 130}))
}

func TestRectFromCenter(t *testing.T) {
	r := entity.RectFromCenter(geometry.Point{X: 150, Y: 130}, 60, 20)
	assert.Equal(t, entity.Rect{X: 120, Y: 120, W: 60, H: 20}, r)
	assert.Equal(t, geometry.Point{X: 150, Y: 130}, r.Center())
}

func TestContext(t *testing.T) {
	ctx, err := entity.NewContext(5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, ctx.Velocity())
	assert.Equal(t, 5*time.Second, ctx.GreenHold())
	assert.Equal(t, 250*time.Millisecond, ctx.YellowHold())
	assert.Equal(t, 5*time.Second, ctx.BroadcastInterval())

	_, err = entity.NewContext(0)
	assert.ErrorIs(t, err, entity.ErrInvalidVelocity)
	_, err = entity.NewContext(-1)
	assert.ErrorIs(t, err, entity.ErrInvalidVelocity)
	_, err = entity.NewContext(math.NaN())
	assert.ErrorIs(t, err, entity.ErrInvalidVelocity)
	_, err = entity.NewContext(math.Inf(1))
	assert.ErrorIs(t, err, entity.ErrInvalidVelocity)
	// 绿灯时长超出time.Duration范围
	_, err = entity.NewContext(1e10)
	assert.ErrorIs(t, err, entity.ErrInvalidVelocity)

	ctx, err = entity.NewContext(9e9)
	require.NoError(t, err)
	assert.Positive(t, ctx.GreenHold())
	assert.Positive(t, ctx.BroadcastInterval())
}
