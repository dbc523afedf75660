package provision

import (
	"errors"
	"fmt"
	"strings"
)

// Error category constants classify provisioning failures.
const (
	ErrCategoryPermission    = "permission"
	ErrCategoryConfiguration = "configuration"
	ErrCategoryResource      = "resource"
	ErrCategoryTimeout       = "timeout"
	ErrCategoryNetwork       = "network"
)

// ProvisionError is a structured error carrying the failed resource,
// a category, and a remediation hint for the operator watching the run.
type ProvisionError struct {
	Category    string
	Resource    string
	Operation   string
	Message     string
	Remediation string
	Cause       error
}

// Error implements the error interface with a diagnostic-rich message.
func (e *ProvisionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s failed", e.Operation, e.Resource)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	if e.Remediation != "" {
		fmt.Fprintf(&b, " [hint: %s]", e.Remediation)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ProvisionError) Unwrap() error {
	return e.Cause
}

// classifyError determines category and remediation from an error
// string, checking common AWS failure patterns.
func classifyError(err error) (category, remediation string) {
	if err == nil {
		return ErrCategoryResource, ""
	}
	lower := strings.ToLower(err.Error())

	if containsAny(lower, permissionKeywords) {
		return ErrCategoryPermission, hintCheckIAM
	}
	if containsAny(lower, networkKeywords) {
		return ErrCategoryNetwork, hintCheckNetwork
	}
	if containsAny(lower, timeoutKeywords) {
		return ErrCategoryTimeout, hintRetryOrTimeout
	}
	if containsAny(lower, configKeywords) {
		return ErrCategoryConfiguration, hintCheckConfig
	}
	return ErrCategoryResource, ""
}

// Keyword groups for error classification.
var (
	permissionKeywords = []string{
		"accessdenied", "access denied", "unauthorized",
		"not authorized", "forbidden",
	}
	networkKeywords = []string{
		"connection refused", "no such host", "dial tcp", "tls handshake",
	}
	timeoutKeywords = []string{
		"deadline exceeded", "context canceled", "did not become ready",
	}
	configKeywords = []string{
		"validation", "invalid", "malformed",
	}
)

// Remediation hint constants.
const (
	hintCheckIAM       = "verify your AWS credentials can manage Cognito, ECR, SSM, Secrets Manager, and AgentCore resources"
	hintCheckNetwork   = "verify the AWS region is correct and network connectivity is available"
	hintRetryOrTimeout = "the resource may still be provisioning; retry after a short wait"
	hintCheckConfig    = "check the unit name, entrypoint, and protocol arguments"
)

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// wrapStep decorates a step failure with classification so the CLI can
// print a remediation hint alongside the error.
func wrapStep(operation, resource string, cause error) error {
	var pe *ProvisionError
	if errors.As(cause, &pe) {
		return cause
	}
	category, remediation := classifyError(cause)
	return &ProvisionError{
		Category:    category,
		Resource:    resource,
		Operation:   operation,
		Message:     cause.Error(),
		Remediation: remediation,
		Cause:       cause,
	}
}
