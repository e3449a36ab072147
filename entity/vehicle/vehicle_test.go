package vehicle_test

import (
	"errors"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

const world = 528.0

var zone = entity.Rect{X: 120, Y: 120, W: 60, H: 20}

type stubLight struct {
	dir   entity.Direction
	phase entity.Phase
	zone  entity.Rect
}

func (s *stubLight) Direction() entity.Direction { return s.dir }
func (s *stubLight) Phase() entity.Phase         { return s.phase }
func (s *stubLight) StopZone() entity.Rect       { return s.zone }

func mustContext(t *testing.T, v float64) *entity.Context {
	t.Helper()
	ctx, err := entity.NewContext(v)
	require.NoError(t, err)
	return ctx
}

func TestNewVehicleValidation(t *testing.T) {
	ctx := mustContext(t, 5)
	light := &stubLight{zone: zone}

	_, err := vehicle.NewVehicle("a", geometry.Point{}, geometry.Point{}, 10, 10, world, ctx, light)
	assert.ErrorIs(t, err, entity.ErrZeroDirection)

	_, err = vehicle.NewVehicle("a", geometry.Point{}, geometry.Point{X: 1}, 10, 10, world, ctx, nil)
	assert.ErrorIs(t, err, entity.ErrUnboundLight)

	_, err = vehicle.NewVehicle("a", geometry.Point{}, geometry.Point{X: 1}, 0, 10, world, ctx, light)
	assert.ErrorIs(t, err, entity.ErrInvalidRect)

	v, err := vehicle.NewVehicle("a", geometry.Point{}, geometry.Point{X: 3, Y: 4}, 10, 10, world, ctx, light)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v.Dir().X, 1e-12)
	assert.InDelta(t, 0.8, v.Dir().Y, 1e-12)
}

// 停车区 (120,120,60,20)，车辆包围盒与之完全重合：
// 红灯10帧位移为0，切换为绿灯后10帧位移为 10*velocity
func TestStopZoneScenario(t *testing.T) {
	ctx := mustContext(t, 5)
	light := &stubLight{dir: entity.SOUTH, phase: entity.RED, zone: zone}
	v, err := vehicle.NewVehicle("car", geometry.Point{X: 150, Y: 130}, geometry.Point{Y: 1}, 60, 20, world, ctx, light)
	require.NoError(t, err)
	require.Equal(t, zone, v.Rect())

	start := v.Position()
	for range 10 {
		v.Update()
		assert.Equal(t, start, v.Position())
		assert.True(t, v.Stopped())
	}

	light.phase = entity.GREEN
	for range 10 {
		v.Update()
	}
	assert.False(t, v.Stopped())
	assert.Equal(t, geometry.Point{X: 150, Y: 180}, v.Position())
}

func TestMovesEveryTickUnlessRedAndOverlapping(t *testing.T) {
	ctx := mustContext(t, 5)
	for _, tc := range []struct {
		name   string
		phase  entity.Phase
		center geometry.Point
	}{
		{"green inside zone", entity.GREEN, geometry.Point{X: 150, Y: 130}},
		{"yellow inside zone", entity.YELLOW, geometry.Point{X: 150, Y: 130}},
		{"red outside zone", entity.RED, geometry.Point{X: 400, Y: 400}},
		{"red touching zone edge", entity.RED, geometry.Point{X: 150, Y: 110}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			light := &stubLight{phase: tc.phase, zone: zone}
			v, err := vehicle.NewVehicle("car", tc.center, geometry.Point{X: 1}, 60, 20, world, ctx, light)
			require.NoError(t, err)
			prev := v.Position()
			for range 3 {
				v.Update()
				assert.InDelta(t, prev.X+5, v.Position().X, 1e-9)
				assert.Equal(t, prev.Y, v.Position().Y)
				prev = v.Position()
			}
		})
	}
}

func TestApproachStopsAtZone(t *testing.T) {
	ctx := mustContext(t, 5)
	light := &stubLight{phase: entity.RED, zone: zone}
	// 从上方驶来，包围盒底边初始在y=100
	v, err := vehicle.NewVehicle("car", geometry.Point{X: 150, Y: 90}, geometry.Point{Y: 1}, 20, 20, world, ctx, light)
	require.NoError(t, err)

	for range 20 {
		v.Update()
	}
	// y=115时包围盒底边为125，与停车区重叠后不再前进
	assert.Equal(t, geometry.Point{X: 150, Y: 115}, v.Position())
	assert.True(t, v.Stopped())
	assert.True(t, zone.Intersects(v.Rect()))
}

func TestWrapAroundReturnsToStart(t *testing.T) {
	ctx := mustContext(t, 5)
	light := &stubLight{phase: entity.GREEN, zone: zone}
	start := geometry.Point{X: 650, Y: 131}
	v, err := vehicle.NewVehicle("horizontal_up", start, geometry.Point{X: -1}, 48, 24, world, ctx, light)
	require.NoError(t, err)

	for range 126 {
		v.Update()
	}
	assert.Equal(t, geometry.Point{X: 20, Y: 131}, v.Position())
	assert.Equal(t, 0, v.Laps())

	// 包围盒左边越过0，下一帧先回到起点再前进
	v.Update()
	assert.Equal(t, geometry.Point{X: 645, Y: 131}, v.Position())
	assert.Equal(t, 1, v.Laps())

	for range 1000 {
		v.Update()
		assert.LessOrEqual(t, v.Position().X, start.X)
		assert.Greater(t, v.Position().X, 0.0)
	}
}

func TestWrapAroundVertical(t *testing.T) {
	ctx := mustContext(t, 4)
	light := &stubLight{phase: entity.GREEN, zone: zone}
	start := geometry.Point{X: 170, Y: -32}
	v, err := vehicle.NewVehicle("vertical_left", start, geometry.Point{Y: 1}, 24, 48, world, ctx, light)
	require.NoError(t, err)

	maxY := start.Y
	for range 2000 {
		v.Update()
		if v.Position().Y > maxY {
			maxY = v.Position().Y
		}
		assert.Equal(t, start.X, v.Position().X)
	}
	assert.Greater(t, v.Laps(), 0)
	// 包围盒上边越过世界边界的那一帧之后立刻回到起点
	assert.LessOrEqual(t, maxY, world+24+4)
}

func TestManager(t *testing.T) {
	ctx := mustContext(t, 5)
	c := config.Default()
	lights := map[entity.Direction]*stubLight{}
	for _, l := range c.Lights {
		dir, err := entity.ParseDirection(l.Direction)
		require.NoError(t, err)
		lights[dir] = &stubLight{
			dir:   dir,
			phase: entity.GREEN,
			zone:  entity.Rect{X: l.Zone.X, Y: l.Zone.Y, W: l.Zone.W, H: l.Zone.H},
		}
	}
	lookup := func(dir entity.Direction) (entity.ILightGetter, error) {
		if l, ok := lights[dir]; ok {
			return l, nil
		}
		return nil, errors.New("missing")
	}

	m, err := vehicle.NewManager(ctx, c.World.Size, c.Vehicles, lookup)
	require.NoError(t, err)
	require.Len(t, m.Vehicles(), 4)

	up := m.Get("horizontal_up")
	assert.Equal(t, entity.WEST, up.Light().Direction())
	assert.Panics(t, func() { m.Get("nope") })

	m.Update()
	assert.Equal(t, geometry.Point{X: 645, Y: 131}, up.Position())
	assert.Equal(t, geometry.Point{X: -43, Y: 200}, m.Get("horizontal_down").Position())
	assert.Equal(t, 0, m.StoppedCount())

	views := m.Snapshot()
	require.Len(t, views, 4)
	assert.Equal(t, "horizontal_up.png", views[0].Sprite)
	assert.Equal(t, up.Position(), views[0].Position)
}

func TestManagerBindingErrors(t *testing.T) {
	ctx := mustContext(t, 5)
	c := config.Default()
	lookup := func(dir entity.Direction) (entity.ILightGetter, error) {
		return nil, errors.New("missing")
	}
	_, err := vehicle.NewManager(ctx, c.World.Size, c.Vehicles, lookup)
	assert.Error(t, err)

	bad := append([]config.Vehicle(nil), c.Vehicles...)
	bad[0].Light = "sideways"
	ok := func(dir entity.Direction) (entity.ILightGetter, error) {
		return &stubLight{dir: dir, zone: zone}, nil
	}
	_, err = vehicle.NewManager(ctx, c.World.Size, bad, ok)
	assert.ErrorIs(t, err, entity.ErrUnknownDirection)
}
