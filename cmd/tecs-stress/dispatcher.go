package main

import (
	"math"

	"github.com/plus3/tecs/ecs"
	"github.com/plus3/tecs/job"
)

// dispatcher is the entity object that fans work out to the job scheduler each
// frame and waits for it before the component pass starts.
type dispatcher struct {
	ecs.ObjectBase
	sim *simulation

	handles []job.JobHandle
	results []float64
}

func newDispatcher(h ecs.EntityHandle, sim *simulation) (*dispatcher, error) {
	return &dispatcher{
		ObjectBase: ecs.NewObjectBase(h),
		sim:        sim,
		results:    make([]float64, sim.jobsPerFrame),
	}, nil
}

func (d *dispatcher) OnUpdate(dt float64) bool {
	d.handles = d.handles[:0]
	for i := range d.results {
		slot := &d.results[i]
		seed := float64(i) + dt
		h, err := d.sim.jobs.ScheduleJob(func() {
			acc := seed
			for n := 0; n < 256; n++ {
				acc = math.Sqrt(acc*acc + float64(n))
			}
			*slot = acc
		})
		if err != nil {
			d.sim.logger.Warn("schedule failed", "err", err)
			return false
		}
		d.handles = append(d.handles, h)
	}

	job.WaitAll(d.handles...)
	for _, h := range d.handles {
		if err := h.Err(); err != nil {
			d.sim.logger.Error("job failed", "err", err)
			d.sim.jobErrors++
		}
	}
	d.sim.jobsRun += int64(len(d.handles))
	return true
}
