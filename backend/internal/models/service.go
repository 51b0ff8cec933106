// Package models composes graph queries into the user, job, skill and location
// operations. Writes that touch several nodes upsert them concurrently and create the
// edges between them only after every node is stored.
package models

import (
	"jobgraph/backend/internal/background"
	"jobgraph/backend/internal/graph"
)

// Service groups every entity's operations over one store
type Service struct {
	Users     *Users
	Jobs      *Jobs
	Skills    *Skills
	Locations *Locations
}

// New wires the operations; runner executes the edge writes callers do not wait on
func New(store graph.Store, runner *background.Runner) *Service {
	o := orchestrator{
		store:     store,
		runner:    runner,
		skills:    NewSkills(store),
		locations: NewLocations(store),
	}
	jobs := newJobs(o)
	return &Service{
		Users:     newUsers(o, jobs),
		Jobs:      jobs,
		Skills:    o.skills,
		Locations: o.locations,
	}
}
