// internal/workers/matching/check-scribe-availability/handler.go
package checkscribeavailability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/matching/availability"
	"scribematch/internal/models"
)

const TaskType = "check-scribe-availability"

const examDateLayout = "2006-01-02"

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"scribeId", "examDate", "startTime"},
	"properties": map[string]interface{}{
		"scribeId": map[string]interface{}{"type": "string", "minLength": 1},
		"examDate": map[string]interface{}{
			"type":    "string",
			"pattern": `^\d{4}-\d{2}-\d{2}$`,
		},
		"startTime": map[string]interface{}{
			"type":    "string",
			"pattern": `^\d{2}:\d{2}$`,
		},
	},
}

// ProfileFetcher resolves a scribe id to a full profile.
type ProfileFetcher func(ctx context.Context, scribeID string) (*models.ScribeProfile, error)

// Handler probes one scribe's calendar for a single exam slot, for
// BPMN flows that re-check availability right before booking.
type Handler struct {
	config       *Config
	probe        availability.Probe
	profiles     ProfileFetcher
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, probe availability.Probe, profiles ProfileFetcher, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		probe:        probe,
		profiles:     profiles,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute exposes the business logic for direct invocation in tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	examDate, err := time.Parse(examDateLayout, input.ExamDate)
	if err != nil {
		return nil, errors.NewInvalidMatchRequestError(fmt.Sprintf("parse examDate: %v", err))
	}

	profile, err := h.profiles(ctx, input.ScribeID)
	if err != nil {
		return nil, err
	}

	available, err := h.probe.IsAvailable(ctx, *profile, examDate, input.StartTime)
	if err != nil {
		return nil, errors.NewAvailabilityProbeError(input.ScribeID, err)
	}

	output := &Output{
		ScribeID:  input.ScribeID,
		Available: available,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if !available {
		next, err := h.probe.NextAvailableSlot(ctx, *profile, examDate)
		if err != nil {
			h.logger.Warn("next-slot lookup failed", map[string]interface{}{
				"scribeId": input.ScribeID,
				"error":    err.Error(),
			})
		} else if next != nil {
			output.NextAvailable = next.UTC().Format(time.RFC3339)
		}
	}

	return output, nil
}

func parseInput(variables string) (*Input, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(inputSchema),
		gojsonschema.NewStringLoader(variables),
	)
	if err != nil {
		return nil, errors.NewInvalidMatchRequestError(fmt.Sprintf("validate input: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, errors.NewInvalidMatchRequestError(fmt.Sprintf("input validation failed: %v", errs))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidMatchRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
