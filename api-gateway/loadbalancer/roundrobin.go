package loadbalancer

import (
	"sync"

	"github.com/tair/micro-marketplace/pkg/logger"
)

// RoundRobin hands out backend instances in rotation
type RoundRobin struct {
	instances []string
	current   int
	mu        sync.Mutex
}

// NewRoundRobin creates a new round-robin load balancer
func NewRoundRobin(instances []string) *RoundRobin {
	logger.Logger.Info().
		Int("instance_count", len(instances)).
		Strs("instances", instances).
		Msg("Round-robin load balancer initialized")

	return &RoundRobin{instances: instances}
}

// Next returns the next instance in round-robin order, or "" when the
// pool is empty
func (rr *RoundRobin) Next() string {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if len(rr.instances) == 0 {
		return ""
	}

	instance := rr.instances[rr.current]
	rr.current = (rr.current + 1) % len(rr.instances)

	return instance
}

// Instances returns a copy of the instance pool
func (rr *RoundRobin) Instances() []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return append([]string{}, rr.instances...)
}

// Stats returns load balancer statistics for the overview endpoint
func (rr *RoundRobin) Stats() map[string]interface{} {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return map[string]interface{}{
		"algorithm":      "round-robin",
		"instance_count": len(rr.instances),
		"instances":      rr.instances,
		"current_index":  rr.current,
	}
}
