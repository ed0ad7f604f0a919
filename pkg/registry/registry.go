// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRegistry reads a task catalog from disk, for deployments that
// override the built-in one.
func LoadRegistry(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TaskRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// FindByTaskType returns the catalog entry for a task type.
func (r *TaskRegistry) FindByTaskType(taskType string) (*Task, error) {
	for i := range r.Tasks {
		if r.Tasks[i].TaskType == taskType {
			return &r.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task type not in registry: %s", taskType)
}

// Default returns the built-in catalog for this service.
func Default() *TaskRegistry {
	return &TaskRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-08-01",
		Tasks: []Task{
			{
				ID:          "find-scribe-matches",
				DisplayName: "Find Scribe Matches",
				Description: "Scores and ranks verified scribes for a student's exam request",
				Category:    "matching",
				TaskType:    "find-scribe-matches",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"student", "exam"},
					"properties": map[string]interface{}{
						"student": map[string]interface{}{"type": "object"},
						"exam":    map[string]interface{}{"type": "object"},
						"pool":    map[string]interface{}{"type": "array"},
						"filter":  map[string]interface{}{"type": "object"},
						"rankBy":  map[string]interface{}{"type": "string"},
					},
				},
				OutputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"matches":    map[string]interface{}{"type": "array"},
						"matchCount": map[string]interface{}{"type": "integer"},
						"topScore":   map[string]interface{}{"type": "number"},
						"partial":    map[string]interface{}{"type": "boolean"},
					},
				},
				ErrorCodes: []string{
					"INVALID_MATCH_REQUEST",
					"POOL_QUERY_FAILED",
					"MATCH_RUN_FAILED",
					"MATCH_RUN_TIMEOUT",
				},
				Timeout:   "30s",
				Retries:   3,
				Workflows: []string{"scribe-booking", "exam-preparation"},
			},
			{
				ID:          "check-scribe-availability",
				DisplayName: "Check Scribe Availability",
				Description: "Probes one scribe's calendar for a specific exam slot",
				Category:    "matching",
				TaskType:    "check-scribe-availability",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"scribeId", "examDate", "startTime"},
					"properties": map[string]interface{}{
						"scribeId":  map[string]interface{}{"type": "string"},
						"examDate":  map[string]interface{}{"type": "string"},
						"startTime": map[string]interface{}{"type": "string"},
					},
				},
				OutputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"isAvailable":       map[string]interface{}{"type": "boolean"},
						"nextAvailableDate": map[string]interface{}{"type": "string"},
					},
				},
				ErrorCodes: []string{
					"INVALID_MATCH_REQUEST",
					"PROFILE_FETCH_FAILED",
					"AVAILABILITY_PROBE_FAILED",
				},
				Timeout:   "10s",
				Retries:   3,
				Workflows: []string{"scribe-booking"},
			},
		},
	}
}
