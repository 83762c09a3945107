package repair

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v), "not valid JSON: %q", s)
	return v
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]interface{}
	}{
		{
			name:  "well formed",
			input: `{"course_name": "Databases", "tasks": [{"task_id": "t1"}]}`,
			want: map[string]interface{}{
				"course_name": "Databases",
				"tasks":       []interface{}{map[string]interface{}{"task_id": "t1"}},
			},
		},
		{
			name:  "fenced",
			input: "```json\n{\"deadline\": \"2024-11-14T12:00:00\"}\n```",
			want:  map[string]interface{}{"deadline": "2024-11-14T12:00:00"},
		},
		{
			name:  "fenced without language",
			input: "```\n{\"a\": 1}\n```",
			want:  map[string]interface{}{"a": float64(1)},
		},
		{
			name:  "truncated mid object",
			input: `{"tasks": [{"task_id": "t1", "title": "Setup"}, {"task_id": "t2"`,
			want: map[string]interface{}{
				"tasks": []interface{}{
					map[string]interface{}{"task_id": "t1", "title": "Setup"},
					map[string]interface{}{"task_id": "t2"},
				},
			},
		},
		{
			name:  "truncated mid string with newline",
			input: "{\"summary_overview\": \"Build a parser.\nIt must",
			want:  map[string]interface{}{"summary_overview": "Build a parser.\nIt must"},
		},
		{
			name:  "trailing commentary",
			input: "Here is the guide:\n{\"a\": {\"b\": [1]}}\nLet me know if you need anything else {",
			want:  map[string]interface{}{"a": map[string]interface{}{"b": []interface{}{float64(1)}}},
		},
		{
			name:  "trailing comma after truncation",
			input: `{"constraints": ["No external libraries",`,
			want:  map[string]interface{}{"constraints": []interface{}{"No external libraries"}},
		},
		{
			name:  "truncated after key and colon",
			input: `{"tasks": [{"task_id": "t1"}], "deadline":`,
			want: map[string]interface{}{
				"tasks": []interface{}{map[string]interface{}{"task_id": "t1"}},
			},
		},
		{
			name:  "truncated after completed key",
			input: `{"tasks": [{"task_id": "t1"}], "deadline"`,
			want: map[string]interface{}{
				"tasks": []interface{}{map[string]interface{}{"task_id": "t1"}},
			},
		},
		{
			name:  "truncated inside nested key",
			input: `{"milestones": [{"milestone_id": "m1", "tit`,
			want: map[string]interface{}{
				"milestones": []interface{}{map[string]interface{}{"milestone_id": "m1"}},
			},
		},
		{
			name:  "truncated after opening brace and key",
			input: `{"a": {"b": `,
			want:  map[string]interface{}{"a": map[string]interface{}{}},
		},
		{
			name:  "raw tab inside string",
			input: "{\"cmd\": \"make\tall\"}",
			want:  map[string]interface{}{"cmd": "make\tall"},
		},
		{
			name:  "escaped quote kept",
			input: `{"quote": "say \"hi\""}`,
			want:  map[string]interface{}{"quote": `say "hi"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Repair(tt.input)
			assert.Equal(t, tt.want, parse(t, got))
		})
	}
}

func TestRepairBracketBalanceRecovery(t *testing.T) {
	got := parse(t, Repair(`{"a": [1, 2, {"b": "unterminated`))

	list, ok := got["a"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, float64(1), list[0])
	assert.Equal(t, float64(2), list[1])
	assert.Equal(t, map[string]interface{}{"b": "unterminated"}, list[2])
}

func TestRepairIsIdempotentOnValidJSON(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"a": null, "b": true, "c": 1.5, "d": "x\\ny"}`,
		`{"nested": {"list": [[], {}, [1, [2, [3]]]]}}`,
		`  {"padded": "yes"}  `,
	}
	for _, in := range inputs {
		var want map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(in), &want))

		once := Repair(in)
		assert.Equal(t, want, parse(t, once))
		assert.Equal(t, once, Repair(once))
	}
}

func TestRepairIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"no json here",
		"```json\n",
		"```json\n{\"a\": [",
		"{",
		"}{",
		`{"a": }`,
		`{"a": [1}`,
		"\x00\x01\xff\xfe{\"\x02",
		`{"a": "trailing backslash \`,
		`[1, 2, 3]`,
		`{"k": "v"}}}}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out := Repair(in)
			assert.True(t, json.Valid([]byte(out)), "invalid output %q", out)
			parse(t, out)
		})
	}
}

func TestDecode(t *testing.T) {
	assert.Equal(t, map[string]interface{}{}, Decode("garbage"))
	assert.Equal(t, "x", Decode("```json\n{\"a\": \"x\"}\n```")["a"])
}
