package ecs

// EntityObject is a scripted object bound to one entity. The System starts each
// object once and then updates it every frame; returning false from either call
// stops the frame.
type EntityObject interface {
	Handle() EntityHandle
	// IsValid reports whether the object should stay in the graph.
	IsValid() bool
	OnStart() bool
	OnUpdate(dt float64) bool
}

// ObjectBase implements the bookkeeping half of EntityObject. Embed it and
// provide OnUpdate; OnStart defaults to a no-op.
type ObjectBase struct {
	handle    EntityHandle
	destroyed bool
}

// NewObjectBase binds a base to h.
func NewObjectBase(h EntityHandle) ObjectBase {
	return ObjectBase{handle: h}
}

func (b *ObjectBase) Handle() EntityHandle {
	return b.handle
}

func (b *ObjectBase) IsValid() bool {
	return !b.destroyed && b.handle.Valid()
}

func (b *ObjectBase) OnStart() bool {
	return true
}

// Destroy destroys the entity. The object is pruned from its graph on the next compile.
func (b *ObjectBase) Destroy() error {
	if b.destroyed {
		return nil
	}
	b.destroyed = true
	return b.handle.Destroy()
}

type objectNode struct {
	object  EntityObject
	started bool
}

// EntityObjectGraph holds the objects the System updates. Compile currently orders
// objects by insertion; it is the place to add dependency ordering.
type EntityObjectGraph struct {
	nodes []*objectNode
}

// NewEntityObjectGraph creates an empty graph.
func NewEntityObjectGraph() *EntityObjectGraph {
	return &EntityObjectGraph{}
}

// Add appends obj to the graph.
func (g *EntityObjectGraph) Add(obj EntityObject) {
	g.nodes = append(g.nodes, &objectNode{object: obj})
}

// Len returns the number of objects, including ones that will be pruned on the next compile.
func (g *EntityObjectGraph) Len() int {
	return len(g.nodes)
}

// Compile prunes invalid objects and returns the update order.
func (g *EntityObjectGraph) Compile() []EntityObject {
	g.compile()
	return g.Objects()
}

func (g *EntityObjectGraph) compile() []*objectNode {
	kept := g.nodes[:0]
	for _, n := range g.nodes {
		if n.object.IsValid() {
			kept = append(kept, n)
		}
	}
	clear(g.nodes[len(kept):])
	g.nodes = kept
	return g.nodes
}

// Objects returns the objects in update order without pruning.
func (g *EntityObjectGraph) Objects() []EntityObject {
	out := make([]EntityObject, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.object
	}
	return out
}

// run starts or updates every node in order. It stops at the first false.
func (g *EntityObjectGraph) run(order []*objectNode, dt float64) bool {
	for _, n := range order {
		if !n.started {
			n.started = true
			if !n.object.OnStart() {
				return false
			}
			continue
		}
		if !n.object.OnUpdate(dt) {
			return false
		}
	}
	return true
}

// EntityObjectSpawner creates entities for objects and registers the objects with a graph.
type EntityObjectSpawner struct {
	world *World
	graph *EntityObjectGraph
}

// NewEntityObjectSpawner binds a spawner to a world and a graph.
func NewEntityObjectSpawner(w *World, g *EntityObjectGraph) *EntityObjectSpawner {
	return &EntityObjectSpawner{world: w, graph: g}
}

// Spawn creates an entity, lets build construct the object around it and adds the
// object to the graph. The entity is not committed. If build fails the entity is destroyed.
func (s *EntityObjectSpawner) Spawn(build func(EntityHandle) (EntityObject, error)) (EntityObject, error) {
	h := s.world.CreateEntityHandle()
	obj, err := build(h)
	if err != nil {
		_ = h.Destroy()
		return nil, err
	}
	s.graph.Add(obj)
	return obj, nil
}

// SpawnObject is Spawn for constructors returning a concrete object type.
func SpawnObject[T EntityObject](s *EntityObjectSpawner, build func(EntityHandle) (T, error)) (T, error) {
	obj, err := s.Spawn(func(h EntityHandle) (EntityObject, error) {
		return build(h)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return obj.(T), nil
}
