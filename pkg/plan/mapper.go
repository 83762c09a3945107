// Package plan maps loosely typed model output onto models.Plan.
package plan

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
)

const (
	FallbackTaskID          = "fallback-1"
	FallbackTaskTitle       = "Review Specifications Manually"
	FallbackTaskDescription = "Could not extract specific tasks. Please review your coursework specifications directly."
	FallbackTaskTime        = "Varies"
)

// Diagnostic records a list item that could not be converted.
type Diagnostic struct {
	Field string
	Index int
	Err   error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%d]: %v", d.Field, d.Index, d.Err)
}

type Result struct {
	Plan        models.Plan
	Diagnostics []Diagnostic
}

type object = map[string]interface{}

// Map converts raw into a Plan. It never fails: wrong-typed fields fall back
// to defaults, bad list items are skipped, and fields that could not be
// extracted are named in ExtractionWarnings.
func Map(raw map[string]interface{}) Result {
	if raw == nil {
		raw = object{}
	}

	var diags []Diagnostic
	collect := func(d []Diagnostic) { diags = append(diags, d...) }

	tasks, d := mapList(raw, "tasks", taskFrom)
	collect(d)
	milestones, d := mapList(raw, "milestones", milestoneFrom)
	collect(d)
	terminology, d := mapList(raw, "terminology", termFrom)
	collect(d)
	criteria, d := mapList(raw, "marking_criteria", criterionFrom)
	collect(d)
	steps, d := mapList(raw, "get_started_steps", stepFrom)
	collect(d)
	tiers, d := mapList(raw, "prioritization_tiers", tierFrom)
	collect(d)
	schedule, d := mapList(raw, "recommended_schedule", weekFrom)
	collect(d)
	directory, d := mapList(raw, "directory_structure", directoryFrom)
	collect(d)

	p := models.Plan{
		Tasks:               tasks,
		Milestones:          milestones,
		SetupInstructions:   topLevelList(raw, "setup_instructions", &diags),
		CourseName:          optionalString(raw["course_name"]),
		TotalEstimatedTime:  optionalString(raw["total_estimated_time"]),
		SummaryOverview:     optionalString(raw["summary_overview"]),
		KeyDeliverables:     topLevelList(raw, "key_deliverables", &diags),
		WhatYouNeedToDo:     optionalString(raw["what_you_need_to_do"]),
		Deadline:            optionalString(raw["deadline"]),
		DeadlineNote:        optionalString(raw["deadline_note"]),
		GetStartedSteps:     steps,
		DirectoryStructure:  directory,
		Terminology:         terminology,
		MarkingCriteria:     criteria,
		PrioritizationTiers: tiers,
		RecommendedSchedule: schedule,
		Constraints:         topLevelList(raw, "constraints", &diags),
		DebuggingTips:       topLevelList(raw, "debugging_tips", &diags),
		ExtractionWarnings:  []string{},
	}

	warn := func(field string) { p.ExtractionWarnings = append(p.ExtractionWarnings, field) }

	if len(p.Tasks) == 0 {
		warn("tasks")
		p.Tasks = []models.Task{FallbackTask()}
	}
	if len(p.MarkingCriteria) == 0 {
		warn("marking_criteria")
	}
	if !truthy(raw["deadline"]) {
		warn("deadline")
	}
	if len(p.KeyDeliverables) == 0 {
		warn("key_deliverables")
	}
	if len(p.PrioritizationTiers) == 0 {
		warn("prioritization_tiers")
	}
	if len(p.GetStartedSteps) == 0 {
		warn("get_started_steps")
	}
	if len(p.Milestones) == 0 {
		warn("milestones")
	}

	for _, diag := range diags {
		logger.Warnw("skipping malformed plan item", "field", diag.Field, "index", diag.Index, "error", diag.Err)
	}

	return Result{Plan: p, Diagnostics: diags}
}

// FallbackTask is substituted when no task could be extracted.
func FallbackTask() models.Task {
	return models.Task{
		ID:              FallbackTaskID,
		Title:           FallbackTaskTitle,
		Description:     FallbackTaskDescription,
		EstimatedTime:   FallbackTaskTime,
		RelatedFiles:    []string{},
		Commands:        []string{},
		PrerequisiteIDs: []string{},
		Status:          models.StatusTodo,
	}
}

// mapList converts every element of raw[field] independently. position is
// the number of items accepted so far, used for generated ids.
func mapList[T any](raw object, field string, conv func(item object, position int) (T, error)) ([]T, []Diagnostic) {
	out := []T{}
	var diags []Diagnostic

	value, ok := raw[field]
	if !ok || value == nil {
		return out, nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return out, []Diagnostic{{Field: field, Index: -1, Err: fmt.Errorf("expected list, got %T", value)}}
	}

	for i, it := range items {
		item, ok := it.(map[string]interface{})
		if !ok {
			diags = append(diags, Diagnostic{Field: field, Index: i, Err: fmt.Errorf("expected object, got %T", it)})
			continue
		}
		v, err := conv(item, len(out))
		if err != nil {
			diags = append(diags, Diagnostic{Field: field, Index: i, Err: err})
			continue
		}
		out = append(out, v)
	}

	return out, diags
}

func taskFrom(item object, position int) (models.Task, error) {
	var t models.Task
	var err error

	if t.ID, err = stringField(item, "task_id", fmt.Sprintf("t%d", position+1)); err != nil {
		return t, err
	}
	if t.Title, err = stringField(item, "title", "Untitled Task"); err != nil {
		return t, err
	}
	if t.Description, err = stringField(item, "description", ""); err != nil {
		return t, err
	}
	if t.EstimatedTime, err = stringField(item, "estimated_time", "Unknown"); err != nil {
		return t, err
	}
	if t.RelatedFiles, err = listField(item, "related_files"); err != nil {
		return t, err
	}
	if t.Commands, err = listField(item, "commands"); err != nil {
		return t, err
	}
	if t.PrerequisiteIDs, err = listField(item, "prerequisites"); err != nil {
		return t, err
	}
	status, err := stringField(item, "status", models.StatusTodo)
	if err != nil {
		return t, err
	}
	t.Status = normalizeStatus(status)
	t.SourceQuote = optionalString(item["pdf_snippet"])
	t.Priority = ParsePriority(item["priority"])

	return t, nil
}

func milestoneFrom(item object, position int) (models.Milestone, error) {
	var m models.Milestone
	var err error

	if m.ID, err = stringField(item, "id", fmt.Sprintf("m%d", position+1)); err != nil {
		return m, err
	}
	if m.Title, err = stringField(item, "title", "Untitled Milestone"); err != nil {
		return m, err
	}
	if m.Tasks, err = listField(item, "tasks"); err != nil {
		return m, err
	}
	m.Description = optionalString(item["description"])
	m.Summary = optionalString(item["summary"])

	return m, nil
}

func termFrom(item object, _ int) (models.TermDefinition, error) {
	var td models.TermDefinition
	var err error

	if td.Term, err = stringField(item, "term", ""); err != nil {
		return td, err
	}
	if td.Definition, err = stringField(item, "definition", ""); err != nil {
		return td, err
	}
	td.Example = optionalString(item["example"])

	return td, nil
}

func criterionFrom(item object, _ int) (models.MarkingCriterion, error) {
	var mc models.MarkingCriterion
	var err error

	if mc.Component, err = stringField(item, "component", ""); err != nil {
		return mc, err
	}
	if mc.Description, err = stringField(item, "description", ""); err != nil {
		return mc, err
	}
	if mc.Priority, err = stringField(item, "priority", "essential"); err != nil {
		return mc, err
	}
	if pct, ok := item["percentage"]; ok && pct != nil {
		if s, isString := pct.(string); isString {
			pct = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		}
		n, err := cast.ToIntE(pct)
		if err != nil {
			return mc, fmt.Errorf("percentage: %w", err)
		}
		mc.Percentage = &n
	}

	return mc, nil
}

func stepFrom(item object, position int) (models.GetStartedStep, error) {
	var s models.GetStartedStep
	var err error

	if s.StepNumber, err = intField(item, "step_number", position+1); err != nil {
		return s, err
	}
	if s.Title, err = stringField(item, "title", ""); err != nil {
		return s, err
	}
	if s.Description, err = stringField(item, "description", ""); err != nil {
		return s, err
	}
	if s.Commands, err = listField(item, "commands"); err != nil {
		return s, err
	}
	s.ExpectedOutput = optionalString(item["expected_output"])

	return s, nil
}

func tierFrom(item object, _ int) (models.PrioritizationTier, error) {
	var pt models.PrioritizationTier
	var err error

	if pt.Tier, err = stringField(item, "tier", ""); err != nil {
		return pt, err
	}
	if pt.Description, err = stringField(item, "description", ""); err != nil {
		return pt, err
	}
	if pt.TimeEstimate, err = stringField(item, "time_estimate", ""); err != nil {
		return pt, err
	}
	if pt.TaskIDs, err = listField(item, "task_ids"); err != nil {
		return pt, err
	}

	return pt, nil
}

func weekFrom(item object, position int) (models.WeeklySchedule, error) {
	var w models.WeeklySchedule
	var err error

	if w.Week, err = intField(item, "week", position+1); err != nil {
		return w, err
	}
	if w.Title, err = stringField(item, "title", ""); err != nil {
		return w, err
	}
	if w.TaskIDs, err = listField(item, "task_ids"); err != nil {
		return w, err
	}
	if w.HoursEstimate, err = intField(item, "hours_estimate", 0); err != nil {
		return w, err
	}

	return w, nil
}

func directoryFrom(item object, _ int) (models.DirectoryEntry, error) {
	var de models.DirectoryEntry
	var err error

	if de.Path, err = stringField(item, "path", ""); err != nil {
		return de, err
	}
	if de.Type, err = stringField(item, "type", "file"); err != nil {
		return de, err
	}
	de.Description = optionalString(item["description"])

	return de, nil
}

func normalizeStatus(s string) string {
	switch strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"), " ", "_") {
	case models.StatusInProgress:
		return models.StatusInProgress
	case models.StatusDone, "complete", "completed":
		return models.StatusDone
	default:
		return models.StatusTodo
	}
}
