package dap

import (
	"encoding/json"

	"github.com/aetherall/neodap/pkg/meta"
)

// Initialize sends the initialize request and stores the adapter's
// reported capabilities on the session entity — the one request every
// DAP session issues before anything else (spec.md §3, §6). It does
// not change the session's state; the adapter's `initialized` event
// does that.
func (s *Session) Initialize(adapterID string, extra map[string]any) error {
	args := map[string]any{"adapterID": adapterID}
	for k, v := range extra {
		args[k] = v
	}

	body, err := s.Send("initialize", args, 0)
	if err != nil {
		return err
	}

	var caps map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &caps); err != nil {
			return malformedError(err.Error())
		}
	}
	s.entity.Set("capabilities", caps)

	var filters struct {
		ExceptionBreakpointFilters []ExceptionBreakpointFilter `json:"exceptionBreakpointFilters"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &filters); err == nil && len(filters.ExceptionBreakpointFilters) > 0 {
			s.debugger.exceptionFilters.Declare(filters.ExceptionBreakpointFilters)
			for _, f := range filters.ExceptionBreakpointFilters {
				s.debugger.exceptionFilters.Bind(s.entity, f.Filter, f.Default)
			}
		}
	}
	return nil
}

// Capability reads a single typed capability off a session's stored
// initialize response (e.g. Capability[bool](session,
// "supportsConfigurationDoneRequest")), returning the zero value and
// an error if absent or the wrong shape.
func Capability[T any](s *Session, key string) (T, error) {
	caps, _ := s.entity.Get("capabilities").(map[string]any)
	return meta.Get[T](caps, key)
}
