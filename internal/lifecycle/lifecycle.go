// Package lifecycle holds the plugin state transition table.
package lifecycle

import "github.com/srediag/plugin-xplm/api"

var transitions = map[api.State][]api.State{
	api.StateUninitialized: {api.StateStarted},
	api.StateStarted:       {api.StateEnabled, api.StateStopped},
	api.StateEnabled:       {api.StateDisabled},
	api.StateDisabled:      {api.StateEnabled, api.StateStopped},
	// a stopped plugin can be started again after a reload
	api.StateStopped: {api.StateStarted},
}

// Allowed reports whether the host may move a plugin from one state to another
// in a single call.
func Allowed(from, to api.State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Path returns the states a plugin passes through to get from one state to
// another, not including from. It returns nil when to is unreachable or equal
// to from.
func Path(from, to api.State) []api.State {
	if from == to {
		return nil
	}
	prev := map[api.State]api.State{from: from}
	queue := []api.State{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range transitions[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				var path []api.State
				for s := to; s != from; s = prev[s] {
					path = append([]api.State{s}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}
