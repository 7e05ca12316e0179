// Package flow models the process-flow board: an ordered pipeline of
// production steps with queue metrics and a bottleneck severity score
// per step.
package flow

import "fmt"

// Band buckets a severity score for display.
type Band int

const (
	Low Band = iota
	Watch
	High
)

func (b Band) String() string {
	switch b {
	case Watch:
		return "Watch"
	case High:
		return "High"
	default:
		return "Low"
	}
}

// Step is one station in the pipeline. Queue counts parts waiting,
// AvgMinutes is the mean processing time per part, Capacity is the number
// of parts the station can work in parallel.
type Step struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Station    string   `json:"station" yaml:"station"`
	Queue      int      `json:"queue" yaml:"queue"`
	AvgMinutes float64  `json:"avg_minutes" yaml:"avg_minutes"`
	Capacity   int      `json:"capacity" yaml:"capacity"`
	Next       []string `json:"next,omitempty" yaml:"next,omitempty"`
}

// Severity scores how congested the step is: expected backlog minutes per
// unit of capacity, clamped to [0, 100]. A queued step with no capacity is
// a full stop and scores 100; an empty queue scores 0.
func (s Step) Severity() float64 {
	if s.Queue <= 0 || s.AvgMinutes <= 0 {
		return 0
	}
	if s.Capacity <= 0 {
		return 100
	}
	sev := float64(s.Queue) * s.AvgMinutes / float64(s.Capacity)
	if sev > 100 {
		return 100
	}
	return sev
}

// Band buckets the step's severity: below 35 is Low, below 70 is Watch,
// anything above is High.
func (s Step) Band() Band {
	sev := s.Severity()
	switch {
	case sev < 35:
		return Low
	case sev < 70:
		return Watch
	default:
		return High
	}
}

// Graph is a named pipeline of steps in display order.
type Graph struct {
	Name  string `json:"name" yaml:"name"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Bottleneck returns the step with the highest severity. Ties keep the
// earliest step. ok is false for an empty graph.
func (g Graph) Bottleneck() (Step, bool) {
	if len(g.Steps) == 0 {
		return Step{}, false
	}
	best := g.Steps[0]
	for _, s := range g.Steps[1:] {
		if s.Severity() > best.Severity() {
			best = s
		}
	}
	return best, true
}

// Validate checks that step IDs are unique and every Next reference
// resolves to a declared step.
func (g Graph) Validate() error {
	ids := make(map[string]bool, len(g.Steps))
	for _, s := range g.Steps {
		if s.ID == "" {
			return fmt.Errorf("flow %q: step %q has no id", g.Name, s.Name)
		}
		if ids[s.ID] {
			return fmt.Errorf("flow %q: duplicate step id %q", g.Name, s.ID)
		}
		ids[s.ID] = true
	}
	for _, s := range g.Steps {
		for _, next := range s.Next {
			if !ids[next] {
				return fmt.Errorf("flow %q: step %q points at unknown step %q", g.Name, s.ID, next)
			}
		}
	}
	return nil
}
