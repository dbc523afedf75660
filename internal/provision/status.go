package provision

import (
	"context"
	"strings"
	"time"
)

// Status is the provisioning state derived from a control-plane status
// response. It is never persisted; every poll re-derives it from the
// current response text.
type Status string

// Recognized states. READY and the *_FAILED states are terminal.
const (
	StatusCreating     Status = "CREATING"
	StatusReady        Status = "READY"
	StatusCreateFailed Status = "CREATE_FAILED"
	StatusUpdateFailed Status = "UPDATE_FAILED"
	StatusDeleteFailed Status = "DELETE_FAILED"
	StatusFailed       Status = "FAILED"
)

// Terminal reports whether polling should stop at this state.
func (s Status) Terminal() bool {
	return s == StatusReady || s.Failed()
}

// Failed reports whether the state is a terminal failure.
func (s Status) Failed() bool {
	switch s {
	case StatusCreateFailed, StatusUpdateFailed, StatusDeleteFailed, StatusFailed:
		return true
	}
	return false
}

// statusRule maps one recognizable response shape to a state. Rules are
// ordered: specific phrases are checked before generic ones, and the
// first match wins.
type statusRule struct {
	name   string
	match  func(text string) bool
	status Status
}

// statusRules is the ordered transition table for the readiness state
// machine. No match means the resource is still transitioning.
var statusRules = []statusRule{
	{
		name:   "ready-phrase",
		match:  containsFold("Ready - Agent deployed and endpoint available"),
		status: StatusReady,
	},
	{
		name: "endpoint-ready",
		match: func(text string) bool {
			return strings.Contains(text, "Endpoint:") && strings.Contains(text, "READY")
		},
		status: StatusReady,
	},
	{
		name:   "deploying-phrase",
		match:  containsFold("Deploying - Agent created, endpoint starting"),
		status: StatusCreating,
	},
	{name: "create-failed", match: containsToken("CREATE_FAILED"), status: StatusCreateFailed},
	{name: "update-failed", match: containsToken("UPDATE_FAILED"), status: StatusUpdateFailed},
	{name: "delete-failed", match: containsToken("DELETE_FAILED"), status: StatusDeleteFailed},
	{name: "generic-failure", match: anyFold("failed", "error", "not found"), status: StatusFailed},
}

// MapStatus maps a raw status response to a state. It is a pure
// function of the text: the same text always yields the same state.
func MapStatus(text string) Status {
	for _, rule := range statusRules {
		if rule.match(text) {
			return rule.status
		}
	}
	return StatusCreating
}

func containsFold(phrase string) func(string) bool {
	lower := strings.ToLower(phrase)
	return func(text string) bool {
		return strings.Contains(strings.ToLower(text), lower)
	}
}

func containsToken(token string) func(string) bool {
	return func(text string) bool {
		return strings.Contains(text, token)
	}
}

func anyFold(phrases ...string) func(string) bool {
	return func(text string) bool {
		lower := strings.ToLower(text)
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
}

// readyPollInterval is the fixed delay between readiness polls.
const readyPollInterval = 10 * time.Second

// maxReadyAttempts bounds the readiness poll loop.
const maxReadyAttempts = 30

// gonePollInterval is the fixed delay between teardown absence probes.
const gonePollInterval = 5 * time.Second

// maxGoneAttempts bounds the teardown absence loop.
const maxGoneAttempts = 12

// poller drives a bounded fixed-interval poll loop. The sleep function
// is injectable so the loop is testable without real timers.
type poller struct {
	interval time.Duration
	attempts int
	sleep    func(time.Duration)
}

func newReadyPoller() poller {
	return poller{interval: readyPollInterval, attempts: maxReadyAttempts, sleep: time.Sleep}
}

func newGonePoller() poller {
	return poller{interval: gonePollInterval, attempts: maxGoneAttempts, sleep: time.Sleep}
}

// waitReady polls fetch until the mapped state is terminal or the
// attempt bound is reached. Exceeding the bound is not an error: the
// last observed non-terminal state is returned and the caller decides
// whether that is acceptable.
func (p poller) waitReady(ctx context.Context, fetch func(context.Context) (string, error)) (Status, string, error) {
	status := StatusCreating
	var raw string
	for i := 0; i < p.attempts; i++ {
		text, err := fetch(ctx)
		if err != nil {
			return status, raw, err
		}
		raw = text
		status = MapStatus(text)
		if status.Terminal() {
			return status, raw, nil
		}
		p.sleep(p.interval)
	}
	return status, raw, nil
}

// waitGone polls probe until the resource is absent or the attempt
// bound is reached, reporting whether it is gone.
func (p poller) waitGone(ctx context.Context, probe func(context.Context) (bool, error)) (bool, error) {
	for i := 0; i < p.attempts; i++ {
		exists, err := probe(ctx)
		if err != nil {
			return false, err
		}
		if !exists {
			return true, nil
		}
		p.sleep(p.interval)
	}
	return false, nil
}
