// Package tasks holds the built-in task handlers and a simulated work delay.
//
// Payloads are routed by marker:
//
//	generate_report_for_user:<id>  → "Report generated for user <id>"
//	send_email:<address>           → "Email sent to <address>"
//	fail                           → error "Simulated failure"
//	anything else                  → "Processed: <payload>"
//
// For the marker payloads only the text up to the next ':' is used as the
// argument, so "send_email:a@b.c:extra" sends to "a@b.c".
package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/BranchIntl/jobq/registry"
)

const (
	MarkerReport = "generate_report_for_user:"
	MarkerEmail  = "send_email:"
	MarkerFail   = "fail"
)

// ErrSimulatedFailure is returned by the fail handler
var ErrSimulatedFailure = errors.New("Simulated failure")

// GenerateReport pretends to build a report for a user id
func GenerateReport(ctx context.Context, arg string) (string, error) {
	return "Report generated for user " + firstField(arg), nil
}

// SendEmail pretends to send an email
func SendEmail(ctx context.Context, arg string) (string, error) {
	return "Email sent to " + firstField(arg), nil
}

// Fail always fails, for exercising retries
func Fail(ctx context.Context, arg string) (string, error) {
	return "", ErrSimulatedFailure
}

// Echo acknowledges any other payload
func Echo(ctx context.Context, payload string) (string, error) {
	return "Processed: " + payload, nil
}

// Register installs the built-in handlers and the echo default
func Register(r *registry.Registry) error {
	handlers := map[string]registry.Handler{
		MarkerReport: GenerateReport,
		MarkerEmail:  SendEmail,
		MarkerFail:   Fail,
	}
	for marker, handler := range handlers {
		if err := r.Register(marker, handler); err != nil {
			return err
		}
	}
	return r.SetDefault(Echo)
}

// NewRegistry returns a registry with the built-in handlers installed
func NewRegistry() *registry.Registry {
	r := registry.NewRegistry()
	if err := Register(r); err != nil {
		// Built-in markers and handlers are never empty or nil.
		panic(err)
	}
	return r
}

func firstField(arg string) string {
	field, _, _ := strings.Cut(arg, ":")
	return field
}
