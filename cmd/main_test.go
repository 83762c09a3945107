package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/courseplan/internal/models"
)

func TestPrintPlan(t *testing.T) {
	color.NoColor = true

	name := "Compiling Techniques CW1"
	note := "Friday noon"
	zero := 0
	plan := models.Plan{
		CourseName:   &name,
		DeadlineNote: &note,
		Tasks: []models.Task{
			{ID: "t1", Title: "Set up", EstimatedTime: "1h", Priority: &zero},
			{ID: "t2", Title: "Parser", EstimatedTime: "6h"},
		},
		Milestones:         []models.Milestone{{ID: "m1", Title: "Foundations", Tasks: []string{"t1", "missing"}}},
		ExtractionWarnings: []string{"deadline", "marking_criteria"},
	}

	var buf bytes.Buffer
	printPlan(&buf, plan)
	out := buf.String()

	assert.Contains(t, out, "Compiling Techniques CW1")
	assert.Contains(t, out, "Deadline: unknown (Friday noon)")
	assert.Contains(t, out, "Foundations\n  [P0] t1: Set up (1h)")
	assert.Contains(t, out, "Tasks\n  [P-] t2: Parser (6h)")
	assert.Contains(t, out, "Could not extract: deadline, marking_criteria")
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "decompose"}, names)

	store := root.PersistentFlags().Lookup("store")
	require.NotNil(t, store)
	assert.Equal(t, "auto", store.DefValue)

	root.SetArgs([]string{"decompose"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestDecomposeRejectsNonPDF(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"decompose", "notes.txt", "--no-chat"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only PDF files are accepted")
}
