package topic

import "testing"

func TestTopic_Segments(t *testing.T) {
	tests := []struct {
		topic    Topic
		expected []string
	}{
		{Topic("interaction.state.changed"), []string{"interaction", "state", "changed"}},
		{Topic("note.updated"), []string{"note", "updated"}},
		{Topic("single"), []string{"single"}},
		{Topic(""), nil},
	}

	for _, tt := range tests {
		t.Run(tt.topic.String(), func(t *testing.T) {
			got := tt.topic.Segments()
			if len(got) != len(tt.expected) {
				t.Fatalf("Segments() = %v, want %v", got, tt.expected)
			}
			for i, seg := range got {
				if seg != tt.expected[i] {
					t.Errorf("Segments()[%d] = %v, want %v", i, seg, tt.expected[i])
				}
			}
		})
	}
}

func TestTopic_ParentAndBase(t *testing.T) {
	tp := Topic("interaction.state.changed")
	if got := tp.Parent(); got != "interaction.state" {
		t.Errorf("Parent() = %q", got)
	}
	if got := tp.Base(); got != "changed" {
		t.Errorf("Base() = %q", got)
	}
	if got := Topic("single").Parent(); got != "" {
		t.Errorf("Parent() of single segment = %q", got)
	}
	if got := Topic("single").Base(); got != "single" {
		t.Errorf("Base() of single segment = %q", got)
	}
}

func TestTopic_IsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		valid bool
	}{
		{"annotation.created", true},
		{"note", true},
		{"", false},
		{".note", false},
		{"note.", false},
		{"note..updated", false},
	}
	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.valid {
			t.Errorf("%q.IsValid() = %v, want %v", tt.topic, got, tt.valid)
		}
	}
}

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"annotation.created", "annotation.created", true},
		{"annotation.created", "annotation.removed", false},
		{"annotation.created", "annotation.*", true},
		{"annotation.created", "*.created", true},
		{"interaction.state.changed", "interaction.*", false},
		{"interaction.state.changed", "interaction.**", true},
		{"interaction", "interaction.**", true},
		{"note.updated", "**", true},
		{"note.updated", "**.updated", true},
		{"note.updated", "note.updated.more", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			if got := tt.topic.Matches(tt.pattern); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if got := Join("consistency", "fault"); got != "consistency.fault" {
		t.Errorf("Join() = %q", got)
	}
	if !Topic("a.*").IsWildcard() || Topic("a.b").IsWildcard() {
		t.Error("IsWildcard mismatch")
	}
}
