package testhelpers

import (
	"context"
	"errors"

	"github.com/beaconai/beacon-server/internal/ai"
	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
)

// StubAI is a scriptable ai.Collaborator. Zero value behaves like a healthy
// collaborator that echoes canned prompts and fixed results.
type StubAI struct {
	// Fail simulates collaborator unavailability for all methods.
	Fail bool
	// RewriteFail fails only RewriteUpdate.
	RewriteFail bool

	Assessment ai.Assessment
	Rewritten  string
}

var errUnavailable = errors.New("collaborator unavailable")

func (s *StubAI) NextPrompt(_ context.Context, step beacon.Step, _ []models.Message) (string, error) {
	if s.Fail {
		return "", errUnavailable
	}
	return step.Prompt(), nil
}

func (s *StubAI) ScoreReport(_ context.Context, _ string) (ai.Assessment, error) {
	if s.Fail {
		return ai.Assessment{}, errUnavailable
	}
	if s.Assessment.Explanation == "" {
		return ai.Assessment{Score: 75, Explanation: "Consistent and specific account.", Categories: []string{"bribery"}}, nil
	}
	return s.Assessment, nil
}

func (s *StubAI) RewriteUpdate(_ context.Context, raw string) (string, error) {
	if s.Fail || s.RewriteFail {
		return "", errUnavailable
	}
	if s.Rewritten != "" {
		return s.Rewritten, nil
	}
	return "The case has progressed: " + beacon.Redact(raw), nil
}

