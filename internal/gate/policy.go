package gate

import "time"

// Policy names.
const (
	PolicyGeneration = "generation"
	PolicyChat       = "chat"
)

// Policy is a fixed-window limit applied per user.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// DefaultPolicies returns the built-in limits: generation 10/min, chat 30/min.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		PolicyGeneration: {Name: PolicyGeneration, Limit: 10, Window: time.Minute},
		PolicyChat:       {Name: PolicyChat, Limit: 30, Window: time.Minute},
	}
}
