// Package router maps a content task to the provider slots that serve it and
// turns each slot into a ready-to-call model handle for the request's
// workspace. Routing performs no network I/O.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/blueberrycongee/copydesk/internal/credential"
	"github.com/blueberrycongee/copydesk/internal/provider"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

// CredentialResolver returns the key a workspace uses for a slot.
type CredentialResolver interface {
	Resolve(ctx context.Context, p credential.Provider, workspaceID string) (*credential.Credential, error)
}

// SlotConfig describes the vendor and model behind a provider slot.
type SlotConfig struct {
	Vendor    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// TaskRoute names the slots that serve a task. An empty Fallback means the
// task has no fallback.
type TaskRoute struct {
	Primary  credential.Provider
	Fallback credential.Provider
}

// Config is the routing table, built once at startup.
type Config struct {
	Slots map[credential.Provider]SlotConfig
	Tasks map[types.Task]TaskRoute
}

// DefaultTasks returns the standard task table.
func DefaultTasks() map[types.Task]TaskRoute {
	return map[types.Task]TaskRoute{
		types.TaskGenerateCopy:   {Primary: credential.PrimaryLLM, Fallback: credential.FallbackLLM},
		types.TaskCriticCopy:     {Primary: credential.PrimaryLLM, Fallback: credential.FallbackLLM},
		types.TaskGenerateVisual: {Primary: credential.PrimaryLLM, Fallback: credential.FallbackLLM},
		types.TaskSecondOpinion:  {Primary: credential.ReviewLLM},
	}
}

// Validate checks that every task references known slots.
func (c Config) Validate() error {
	for task, tr := range c.Tasks {
		if !tr.Primary.Valid() {
			return fmt.Errorf("task %s: invalid primary slot %q", task, tr.Primary)
		}
		if tr.Fallback != "" && !tr.Fallback.Valid() {
			return fmt.Errorf("task %s: invalid fallback slot %q", task, tr.Fallback)
		}
		if tr.Fallback == tr.Primary {
			return fmt.Errorf("task %s: fallback slot equals primary", task)
		}
		if _, ok := c.Slots[tr.Primary]; !ok {
			return fmt.Errorf("task %s: primary slot %s is not configured", task, tr.Primary)
		}
	}
	return nil
}

// Target is a resolved slot: a handle plus where its key came from.
type Target struct {
	Slot    credential.Provider
	Handle  provider.Handle
	KeyHint string
	Scope   string
}

// Route is the ordered pair of targets for one task and workspace.
type Route struct {
	Task     types.Task
	Primary  Target
	Fallback *Target
}

// Targets returns the route's targets in attempt order.
func (r *Route) Targets() []Target {
	if r.Fallback == nil {
		return []Target{r.Primary}
	}
	return []Target{r.Primary, *r.Fallback}
}
