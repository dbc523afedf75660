package provision

import (
	"encoding/json"
	"regexp"
	"strings"
)

// agentARNRe matches an AgentCore runtime ARN anywhere in free text.
var agentARNRe = regexp.MustCompile(
	`arn:aws:bedrock-agentcore:[a-z0-9-]+:\d{12}:runtime/[A-Za-z0-9_][A-Za-z0-9_-]*`,
)

// arnStrategy is one named extraction attempt over tool output.
// Strategies are tried in fixed priority order, most structured first,
// because the launch tool's output format is not a stable contract.
type arnStrategy struct {
	name string
	fn   func(output string) string
}

// arnStrategies is the fallback chain for recovering a runtime ARN
// from launch/status output.
var arnStrategies = []arnStrategy{
	{"structured", extractARNStructured},
	{"inline", extractARNInline},
	{"positional", extractARNPositional},
}

// ExtractAgentARN recovers the runtime ARN from tool output, trying
// each strategy in order. Exhausting every strategy is a fatal
// extraction failure: there is nothing to persist.
func ExtractAgentARN(output string) (string, error) {
	for _, s := range arnStrategies {
		if arn := s.fn(output); arn != "" {
			return arn, nil
		}
	}
	return "", &ProvisionError{
		Category:  ErrCategoryResource,
		Operation: "extract",
		Resource:  "agent_arn",
		Message:   "no runtime ARN found in tool output after all extraction strategies",
	}
}

// extractARNStructured scans each line for a JSON object carrying a
// recognized ARN field.
func extractARNStructured(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			continue
		}
		for _, field := range []string{"agent_arn", "agentRuntimeArn", "arn"} {
			if v, ok := doc[field].(string); ok && agentARNRe.MatchString(v) {
				return agentARNRe.FindString(v)
			}
		}
	}
	return ""
}

// extractARNInline matches the ARN pattern anywhere in the text.
func extractARNInline(output string) string {
	return agentARNRe.FindString(output)
}

// extractARNPositional takes the last whitespace-separated field of a
// line labelled "Agent ARN". Weakest strategy: no shape check beyond
// the label.
func extractARNPositional(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Agent ARN") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		last := strings.Trim(fields[len(fields)-1], `"',`)
		if strings.HasPrefix(last, "arn:") {
			return last
		}
	}
	return ""
}

// agentIDFromARN derives the short runtime id: the suffix after the
// last separator in the ARN's resource path.
func agentIDFromARN(arn string) string {
	id := arn
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}
