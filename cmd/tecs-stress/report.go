package main

import (
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/tecs/ecs"
	"github.com/plus3/tecs/job"
)

type Report struct {
	// Configuration
	Duration     time.Duration
	Entities     int
	Components   int
	Workers      int
	JobsPerFrame int

	// Results
	TotalTime      time.Duration
	UpdateTime     Stats
	System         ecs.SystemStats
	World          ecs.WorldStats
	Jobs           job.Stats
	JobsRun        int64
	JobErrors      int64
	Respawned      int64
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]
	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

const reportTemplate = `
# TECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Component Types:** {{.Components}}
- **Job Workers:** {{.Workers}}
- **Jobs Per Frame:** {{.JobsPerFrame}}

## Performance Results
- **Frames:** {{.System.Frames}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Components
{{range .System.Components}}- {{printf "%-10s" .Name}} entities={{.LastEntities}} avg={{.AvgDuration}} max={{.MaxDuration}}
{{end}}
## World
- Slots: {{.World.Slots}}, alive: {{.World.Alive}}, committed: {{.World.Committed}}, free: {{.World.Free}}, retired: {{.World.Retired}}
- Respawned by lifetime: {{.Respawned}}

## Jobs
- Run by dispatcher: {{.JobsRun}} (errors: {{.JobErrors}})
- Scheduled: {{.Jobs.Scheduled}}, completed: {{.Jobs.Completed}}, panicked: {{.Jobs.Panicked}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{end}}`

var reportFuncs = template.FuncMap{
	"bsub": func(a, b uint64) int64 {
		return int64(a) - int64(b)
	},
	"usub": func(a, b uint32) uint32 {
		return a - b
	},
	"ns": func(ns uint64) string {
		return time.Duration(ns).String()
	},
}

var reportTmpl = template.Must(template.New("report").Funcs(reportFuncs).Parse(reportTemplate))

func (r *Report) Generate(w io.Writer) error {
	return reportTmpl.Execute(w, r)
}
