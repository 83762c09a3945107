package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/pkg/repair"
)

func intPtr(i int) *int { return &i }

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *int
	}{
		{"essential", "essential", intPtr(0)},
		{"capitalized strong", "Strong", intPtr(1)},
		{"bonus", "bonus", intPtr(2)},
		{"excellence", "excellence", intPtr(2)},
		{"nil", nil, nil},
		{"int passthrough", 2, intPtr(2)},
		{"json number", float64(0), intPtr(0)},
		{"numeric string", "3", intPtr(3)},
		{"unrecognized", "unrecognized-xyz", intPtr(1)},
		{"keyword in phrase", "Essential (Red)", intPtr(0)},
		{"empty string", "", nil},
		{"other type", true, intPtr(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePriority(tt.input))
		})
	}
}

func TestMapFallbackTask(t *testing.T) {
	inputs := map[string]map[string]interface{}{
		"absent":    {},
		"empty":     {"tasks": []interface{}{}},
		"not list":  {"tasks": "do the coursework"},
		"all bad":   {"tasks": []interface{}{"t1", 42}},
		"null":      {"tasks": nil},
		"nil input": nil,
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			res := Map(raw)

			require.Len(t, res.Plan.Tasks, 1)
			task := res.Plan.Tasks[0]
			assert.Equal(t, FallbackTaskID, task.ID)
			assert.Equal(t, FallbackTaskTitle, task.Title)
			assert.Equal(t, models.StatusTodo, task.Status)
			assert.Equal(t, FallbackTaskTime, task.EstimatedTime)
			assert.True(t, res.Plan.HasWarning("tasks"))
		})
	}
}

func TestMapEmptyObjectWarnsEverything(t *testing.T) {
	res := Map(repair.Decode("total garbage"))

	assert.Equal(t, []string{
		"tasks", "marking_criteria", "deadline", "key_deliverables",
		"prioritization_tiers", "get_started_steps", "milestones",
	}, res.Plan.ExtractionWarnings)
	assert.Empty(t, res.Diagnostics)
}

func TestMapSkipsMalformedItems(t *testing.T) {
	raw := map[string]interface{}{
		"tasks": []interface{}{
			map[string]interface{}{"task_id": "t1", "title": "Set up environment", "priority": "essential"},
			"not an object",
			map[string]interface{}{"title": map[string]interface{}{"nested": true}},
			map[string]interface{}{"title": "Write report", "commands": "make report", "status": "In Progress"},
		},
		"marking_criteria": []interface{}{
			map[string]interface{}{"component": "Implementation", "percentage": "60%"},
			map[string]interface{}{"component": "Report", "percentage": "a lot"},
		},
		"deadline": "2024-11-14T12:00:00",
	}

	res := Map(raw)

	require.Len(t, res.Plan.Tasks, 2)
	assert.Equal(t, "t1", res.Plan.Tasks[0].ID)
	assert.Equal(t, intPtr(0), res.Plan.Tasks[0].Priority)
	assert.Equal(t, "t2", res.Plan.Tasks[1].ID)
	assert.Equal(t, []string{"make report"}, res.Plan.Tasks[1].Commands)
	assert.Equal(t, models.StatusInProgress, res.Plan.Tasks[1].Status)
	assert.Equal(t, "Unknown", res.Plan.Tasks[1].EstimatedTime)
	assert.Nil(t, res.Plan.Tasks[1].Priority)

	require.Len(t, res.Plan.MarkingCriteria, 1)
	assert.Equal(t, intPtr(60), res.Plan.MarkingCriteria[0].Percentage)
	assert.Equal(t, "essential", res.Plan.MarkingCriteria[0].Priority)

	assert.Len(t, res.Diagnostics, 3)
	assert.False(t, res.Plan.HasWarning("tasks"))
	assert.False(t, res.Plan.HasWarning("deadline"))
	assert.False(t, res.Plan.HasWarning("marking_criteria"))
}

func TestMapFullGuide(t *testing.T) {
	raw := repair.Decode("```json\n" + `{
  "course_name": "Informatics Large Practical",
  "summary_overview": "Build a drone delivery service.",
  "key_deliverables": ["Source code", "Report"],
  "total_estimated_time": "40-50 hours",
  "deadline": "2024-11-14T12:00:00",
  "deadline_note": "Friday noon - NO EXTENSIONS",
  "setup_instructions": ["Install Java 21"],
  "get_started_steps": [{"title": "Clone", "commands": ["git clone repo"], "expected_output": "src/"}],
  "directory_structure": [{"path": "src/"}, {"path": "pom.xml", "type": "file", "description": "Build file"}],
  "terminology": [{"term": "REST", "definition": "An architectural style"}],
  "marking_criteria": [{"component": "Implementation", "percentage": 60, "description": "Features", "priority": "essential"}],
  "prioritization_tiers": [{"tier": "Essential", "task_ids": ["t1", "t9"]}],
  "recommended_schedule": [{"title": "Setup", "task_ids": ["t1"], "hours_estimate": 10}],
  "constraints": ["Java only"],
  "debugging_tips": [],
  "milestones": [{"title": "Part 1", "tasks": ["t1", "t2"]}],
  "tasks": [{"task_id": "t1", "title": "Install JDK", "pdf_snippet": "Use Java 21", "prerequisites": [], "priority": 0}]
}` + "\n```")

	res := Map(raw)
	p := res.Plan

	assert.Empty(t, p.ExtractionWarnings)
	assert.Empty(t, res.Diagnostics)
	require.NotNil(t, p.CourseName)
	assert.Equal(t, "Informatics Large Practical", *p.CourseName)
	require.NotNil(t, p.DeadlineNote)
	assert.Contains(t, *p.DeadlineNote, "Friday noon")
	assert.Equal(t, 1, p.GetStartedSteps[0].StepNumber)
	assert.Equal(t, "file", p.DirectoryStructure[0].Type)
	assert.Equal(t, "m1", p.Milestones[0].ID)
	assert.Equal(t, 1, p.RecommendedSchedule[0].Week)
	assert.Equal(t, 10, p.RecommendedSchedule[0].HoursEstimate)
	// dangling ids are kept as-is
	assert.Equal(t, []string{"t1", "t9"}, p.PrioritizationTiers[0].TaskIDs)
	require.NotNil(t, p.Tasks[0].SourceQuote)
	assert.Equal(t, "Use Java 21", *p.Tasks[0].SourceQuote)
	assert.Equal(t, []string{}, p.DebuggingTips)
}

func TestMapFalsyDeadlineWarns(t *testing.T) {
	for _, v := range []interface{}{"", nil, false} {
		res := Map(map[string]interface{}{"deadline": v})
		assert.True(t, res.Plan.HasWarning("deadline"))
		assert.Nil(t, res.Plan.Deadline)
	}
}
