// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"fmt"
	"time"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
)

// BuildReport records the outcome of every orchestrator step.
type BuildReport struct {
	BuildId     string       `yaml:"buildId"`
	ToolVersion string       `yaml:"toolVersion"`
	StartTime   string       `yaml:"startTime"`
	EndTime     string       `yaml:"endTime"`
	Succeeded   bool         `yaml:"succeeded"`
	IsoPath     string       `yaml:"isoPath,omitempty"`
	FailedStep  string       `yaml:"failedStep,omitempty"`
	Error       string       `yaml:"error,omitempty"`
	Steps       []StepReport `yaml:"steps"`
}

type StepReport struct {
	Name     string    `yaml:"name"`
	State    StepState `yaml:"state"`
	Duration string    `yaml:"duration,omitempty"`
}

func newBuildReport(buildId string, toolVersion string, stepNames []string, startTime time.Time) *BuildReport {
	report := &BuildReport{
		BuildId:     buildId,
		ToolVersion: toolVersion,
		StartTime:   startTime.UTC().Format(time.RFC3339),
	}

	for _, name := range stepNames {
		report.Steps = append(report.Steps, StepReport{
			Name:  name,
			State: StepStateNotStarted,
		})
	}

	return report
}

// Step returns the report entry of the named step.
func (r *BuildReport) Step(name string) *StepReport {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

func (r *BuildReport) setStepState(name string, state StepState, duration time.Duration) {
	step := r.Step(name)
	if step == nil {
		return
	}

	step.State = state
	if state == StepStateSucceeded || state == StepStateFailed {
		step.Duration = duration.Round(time.Millisecond).String()
	}
}

func (r *BuildReport) finish(endTime time.Time, failedStep string, err error) {
	r.EndTime = endTime.UTC().Format(time.RFC3339)
	r.Succeeded = err == nil
	r.FailedStep = failedStep
	if err != nil {
		r.Error = err.Error()
	}
}

// WriteFile writes the report as YAML.
func (r *BuildReport) WriteFile(path string) error {
	err := liveisoapi.MarshalYamlFile(path, r)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			fmt.Sprintf("failed to write build report (%s)", path), err)
	}

	return nil
}
