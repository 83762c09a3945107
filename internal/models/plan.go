package models

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

type Task struct {
	ID              string   `json:"task_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	EstimatedTime   string   `json:"estimated_time"`
	RelatedFiles    []string `json:"related_files"`
	SourceQuote     *string  `json:"pdf_snippet"`
	Commands        []string `json:"commands"`
	PrerequisiteIDs []string `json:"prerequisites"`
	Status          string   `json:"status"`
	Priority        *int     `json:"priority"`
}

// Milestone groups task ids. The ids are not checked against the plan's tasks.
type Milestone struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Summary     *string  `json:"summary"`
	Tasks       []string `json:"tasks"`
}

type TermDefinition struct {
	Term       string  `json:"term"`
	Definition string  `json:"definition"`
	Example    *string `json:"example"`
}

type MarkingCriterion struct {
	Component   string `json:"component"`
	Percentage  *int   `json:"percentage"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type GetStartedStep struct {
	StepNumber     int      `json:"step_number"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Commands       []string `json:"commands"`
	ExpectedOutput *string  `json:"expected_output"`
}

type PrioritizationTier struct {
	Tier         string   `json:"tier"`
	Description  string   `json:"description"`
	TimeEstimate string   `json:"time_estimate"`
	TaskIDs      []string `json:"task_ids"`
}

type WeeklySchedule struct {
	Week          int      `json:"week"`
	Title         string   `json:"title"`
	TaskIDs       []string `json:"task_ids"`
	HoursEstimate int      `json:"hours_estimate"`
}

type DirectoryEntry struct {
	Path        string  `json:"path"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
}

// Plan is the Implementation Guide produced by analysis. Tasks is never
// empty once it has gone through the mapper.
type Plan struct {
	Tasks               []Task               `json:"tasks"`
	Milestones          []Milestone          `json:"milestones"`
	SetupInstructions   []string             `json:"setup_instructions"`
	CourseName          *string              `json:"course_name"`
	TotalEstimatedTime  *string              `json:"total_estimated_time"`
	SummaryOverview     *string              `json:"summary_overview"`
	KeyDeliverables     []string             `json:"key_deliverables"`
	WhatYouNeedToDo     *string              `json:"what_you_need_to_do"`
	Deadline            *string              `json:"deadline"`
	DeadlineNote        *string              `json:"deadline_note"`
	GetStartedSteps     []GetStartedStep     `json:"get_started_steps"`
	DirectoryStructure  []DirectoryEntry     `json:"directory_structure"`
	Terminology         []TermDefinition     `json:"terminology"`
	MarkingCriteria     []MarkingCriterion   `json:"marking_criteria"`
	PrioritizationTiers []PrioritizationTier `json:"prioritization_tiers"`
	RecommendedSchedule []WeeklySchedule     `json:"recommended_schedule"`
	Constraints         []string             `json:"constraints"`
	DebuggingTips       []string             `json:"debugging_tips"`
	ExtractionWarnings  []string             `json:"extraction_warnings"`
}

// HasWarning reports whether field could not be confidently extracted.
func (p *Plan) HasWarning(field string) bool {
	for _, w := range p.ExtractionWarnings {
		if w == field {
			return true
		}
	}
	return false
}
