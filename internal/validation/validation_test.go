package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Topic    string   `json:"topic" validate:"notblank,max=10"`
	Stage    string   `json:"funnel_stage" validate:"required,funnel_stage"`
	Items    []string `json:"items" validate:"min=1,max=2"`
	Format   string   `json:"format,omitempty" validate:"omitempty,oneof=single carousel"`
	Internal string   `json:"-"`
}

func TestStruct_FirstErrorUsesJSONNames(t *testing.T) {
	err := Struct(sample{Topic: "  ", Stage: "tofu", Items: []string{"a"}})
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "topic", fe.Path)
	assert.Equal(t, "topic is required", err.Error())
	assert.Equal(t, "%s is required", fe.Format)
	assert.Equal(t, []any{"topic"}, fe.Args)
}

func TestStruct_Messages(t *testing.T) {
	cases := []struct {
		name string
		in   sample
		want string
	}{
		{"too long", sample{Topic: "abcdefghijklmnop", Stage: "tofu", Items: []string{"a"}}, "topic must be at most 10 characters"},
		{"stage", sample{Topic: "x", Stage: "awareness", Items: []string{"a"}}, "funnel_stage must be a funnel stage such as tofu_problem, mofu or bofu_decision"},
		{"too few", sample{Topic: "x", Stage: "mofu"}, "items must have at least 1 items"},
		{"too many", sample{Topic: "x", Stage: "bofu_decision", Items: []string{"a", "b", "c"}}, "items must have at most 2 items"},
		{"oneof", sample{Topic: "x", Stage: "tofu", Items: []string{"a"}, Format: "video"}, "format must be one of: single, carousel"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Topic: "x", Stage: "tofu_problem", Items: []string{"a"}}))
}
