// internal/workers/matching/find-scribe-matches/handler.go
package findscribematches

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
	"scribematch/internal/matching/filter"
	"scribematch/internal/matching/orchestrator"
	"scribematch/internal/matching/rank"
	"scribematch/internal/models"
)

const TaskType = "find-scribe-matches"

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"student", "exam"},
	"properties": map[string]interface{}{
		"student": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"id"},
		},
		"exam": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"date", "startTime"},
		},
		"pool":   map[string]interface{}{"type": "array"},
		"filter": map[string]interface{}{"type": "object"},
		"rankBy": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"score", "distance", "rating", "experience"},
		},
	},
}

// PoolSource builds the candidate pool for a student when the job
// variables don't carry one inline.
type PoolSource func(ctx context.Context, student models.StudentProfile) ([]models.ScribeProfile, error)

// Handler runs one full matching pass for a workflow-supplied student
// and exam. The candidate pool either arrives in the job variables or
// is fetched fresh from the verified-scribe store.
type Handler struct {
	config       *Config
	orchestrator *orchestrator.Orchestrator
	pool         PoolSource
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, orch *orchestrator.Orchestrator, pool PoolSource, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		orchestrator: orch,
		pool:         pool,
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
	pool := input.Pool
	if len(pool) == 0 && h.pool != nil {
		var err error
		pool, err = h.pool(ctx, input.Student)
		if err != nil {
			return nil, err
		}
	}

	results, runErr := h.orchestrator.Run(ctx, "workflow", input.Student, input.Exam, pool)
	partial := false
	if runErr != nil {
		std := errors.AsStandard(runErr)
		if std.Code != errors.ErrCodeMatchRunTimeout {
			return nil, runErr
		}
		// A deadline still produced a usable, if truncated, set.
		partial = true
	}

	if input.Filter != nil {
		results = filter.Apply(results, *input.Filter, input.Exam.Date)
	}
	if input.RankBy != "" {
		results = rank.Sort(results, input.RankBy)
	}
	if h.config.MaxResults > 0 && len(results) > h.config.MaxResults {
		results = results[:h.config.MaxResults]
	}

	output := &Output{
		Matches:    results,
		MatchCount: len(results),
		Partial:    partial,
		RunAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if len(results) > 0 {
		output.TopScore = results[0].Score
	}
	return output, nil
}

func parseInput(variables string) (*Input, error) {
	schemaLoader := gojsonschema.NewGoLoader(inputSchema)
	documentLoader := gojsonschema.NewStringLoader(variables)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
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
