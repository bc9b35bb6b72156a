package ecs

import (
	"errors"
	"fmt"
)

// Commands buffers structural changes made while the world is being iterated.
// The System flushes its buffer after the component pass of every frame.
type Commands struct {
	creates  []createCommand
	destroys []Entity
	adds     []addComponentCommand
	removes  []removeComponentCommand
	commits  []Entity
	defers   []func()
}

// NewCommands creates an empty buffer.
func NewCommands() *Commands {
	return &Commands{}
}

type createCommand struct {
	build func(EntityHandle) error
}

type addComponentCommand struct {
	entity    Entity
	id        ComponentID
	component Component
}

type removeComponentCommand struct {
	entity Entity
	id     ComponentID
}

// Create queues an entity creation. build receives the new handle; the entity is
// committed after build returns without error and destroyed otherwise.
func (c *Commands) Create(build func(EntityHandle) error) {
	c.creates = append(c.creates, createCommand{build: build})
}

// Destroy queues an entity destruction.
func (c *Commands) Destroy(e Entity) {
	c.destroys = append(c.destroys, e)
}

// Add queues a component addition.
func (c *Commands) Add(e Entity, id ComponentID, component Component) {
	c.adds = append(c.adds, addComponentCommand{entity: e, id: id, component: component})
}

// Remove queues a component removal.
func (c *Commands) Remove(e Entity, id ComponentID) {
	c.removes = append(c.removes, removeComponentCommand{entity: e, id: id})
}

// Commit queues an entity commit.
func (c *Commands) Commit(e Entity) {
	c.commits = append(c.commits, e)
}

// Defer queues a function to run last.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.creates) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.commits) + len(c.defers)
}

// Flush applies the buffer to w in the order destroys, removes, adds, commits,
// creates, defers. Operations on entities destroyed by the same flush are skipped.
// Commands queued while the flush runs, from a build or deferred func, are kept
// for the next flush. Every failure is collected into the returned error.
func (c *Commands) Flush(w *World) error {
	pending := *c
	*c = Commands{}

	var errs []error
	destroyed := make(map[Entity]bool, len(pending.destroys))

	for _, e := range pending.destroys {
		if destroyed[e] {
			continue
		}
		if err := w.DestroyEntity(e); err != nil {
			errs = append(errs, fmt.Errorf("destroy %s: %w", e, err))
			continue
		}
		destroyed[e] = true
	}

	for _, cmd := range pending.removes {
		if destroyed[cmd.entity] {
			continue
		}
		if err := w.RemoveComponent(cmd.entity, cmd.id); err != nil {
			errs = append(errs, fmt.Errorf("remove component %d from %s: %w", cmd.id, cmd.entity, err))
		}
	}

	for _, cmd := range pending.adds {
		if destroyed[cmd.entity] {
			continue
		}
		if err := w.AddComponent(cmd.entity, cmd.id, cmd.component); err != nil {
			errs = append(errs, fmt.Errorf("add component %d to %s: %w", cmd.id, cmd.entity, err))
		}
	}

	for _, e := range pending.commits {
		if destroyed[e] {
			continue
		}
		if err := w.CommitEntity(e); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", e, err))
		}
	}

	for _, cmd := range pending.creates {
		h := w.CreateEntityHandle()
		if err := cmd.build(h); err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", h.Entity(), err))
			if derr := h.Destroy(); derr != nil {
				errs = append(errs, derr)
			}
			continue
		}
		if err := h.Commit(); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", h.Entity(), err))
		}
	}

	for _, fn := range pending.defers {
		fn()
	}

	c.recycle(&pending)
	return errors.Join(errs...)
}

// recycle hands the drained slices back to c when nothing was queued during the flush.
func (c *Commands) recycle(drained *Commands) {
	if c.Len() != 0 {
		return
	}
	clear(drained.creates)
	clear(drained.adds)
	clear(drained.defers)
	c.creates = drained.creates[:0]
	c.destroys = drained.destroys[:0]
	c.adds = drained.adds[:0]
	c.removes = drained.removes[:0]
	c.commits = drained.commits[:0]
	c.defers = drained.defers[:0]
}
