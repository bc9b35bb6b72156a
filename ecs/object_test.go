package ecs_test

import (
	"errors"
	"testing"

	"github.com/plus3/tecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedObject records its lifecycle calls and can stop the frame on demand.
type scriptedObject struct {
	ecs.ObjectBase
	name      string
	log       *[]string
	starts    int
	updates   int
	failStart bool
	stopAt    int
}

func (o *scriptedObject) OnStart() bool {
	o.starts++
	if o.log != nil {
		*o.log = append(*o.log, o.name+":start")
	}
	return !o.failStart
}

func (o *scriptedObject) OnUpdate(dt float64) bool {
	o.updates++
	if o.log != nil {
		*o.log = append(*o.log, o.name+":update")
	}
	return o.stopAt == 0 || o.updates < o.stopAt
}

func spawnScripted(t *testing.T, spawner *ecs.EntityObjectSpawner, name string, log *[]string) *scriptedObject {
	t.Helper()
	obj, err := ecs.SpawnObject(spawner, func(h ecs.EntityHandle) (*scriptedObject, error) {
		return &scriptedObject{ObjectBase: ecs.NewObjectBase(h), name: name, log: log}, nil
	})
	require.NoError(t, err)
	return obj
}

func TestSpawnerAddsToGraph(t *testing.T) {
	world, _ := newTestWorld()
	graph := ecs.NewEntityObjectGraph()
	spawner := ecs.NewEntityObjectSpawner(world, graph)

	a := spawnScripted(t, spawner, "a", nil)
	b := spawnScripted(t, spawner, "b", nil)

	assert.Equal(t, 2, graph.Len())
	assert.Equal(t, []ecs.EntityObject{a, b}, graph.Compile())
	assert.True(t, a.IsValid())
	assert.True(t, world.IsAlive(a.Handle().Entity()))
	assert.False(t, world.IsCommitted(a.Handle().Entity()))
}

func TestSpawnerFailureDestroysEntity(t *testing.T) {
	world, _ := newTestWorld()
	graph := ecs.NewEntityObjectGraph()
	spawner := ecs.NewEntityObjectSpawner(world, graph)
	boom := errors.New("boom")

	var spawned ecs.Entity
	_, err := spawner.Spawn(func(h ecs.EntityHandle) (ecs.EntityObject, error) {
		spawned = h.Entity()
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, world.IsAlive(spawned))
	assert.Equal(t, 0, graph.Len())
}

func TestGraphCompilePrunesInvalid(t *testing.T) {
	world, _ := newTestWorld()
	graph := ecs.NewEntityObjectGraph()
	spawner := ecs.NewEntityObjectSpawner(world, graph)

	a := spawnScripted(t, spawner, "a", nil)
	b := spawnScripted(t, spawner, "b", nil)
	c := spawnScripted(t, spawner, "c", nil)

	require.NoError(t, b.Destroy())
	require.NoError(t, b.Destroy())
	assert.False(t, b.IsValid())

	// Destroying the entity directly also invalidates the object.
	require.NoError(t, world.DestroyEntity(c.Handle().Entity()))

	assert.Equal(t, 3, graph.Len())
	assert.Equal(t, []ecs.EntityObject{a}, graph.Compile())
	assert.Equal(t, 1, graph.Len())
}
