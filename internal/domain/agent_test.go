package domain

import "testing"

func TestHasRealEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"", false},
		{"   ", false},
		{"pending", false},
		{"Pending", false},
		{"placeholder", false},
		{"TBD", false},
		{"not-a-url", false},
		{"ftp://agent.example.com", false},
		{"http://agent.example.com/invoke", true},
		{"https://agent.example.com/invoke", true},
		{"  https://agent.example.com  ", true},
	}

	for _, tt := range tests {
		a := &Agent{Endpoint: tt.endpoint}
		if got := a.HasRealEndpoint(); got != tt.want {
			t.Errorf("HasRealEndpoint(%q) = %v, want %v", tt.endpoint, got, tt.want)
		}
	}
}

func TestPriceFor(t *testing.T) {
	a := &Agent{Skills: []Skill{
		{Name: "text-generation", Price: "0.05"},
		{Name: "analysis"},
	}}

	if got := a.PriceFor("text-generation"); got != "0.05" {
		t.Errorf("expected 0.05, got %q", got)
	}
	if got := a.PriceFor("analysis"); got != "0" {
		t.Errorf("unpriced skill should be 0, got %q", got)
	}
	if got := a.PriceFor("unknown"); got != "0" {
		t.Errorf("unknown skill should be 0, got %q", got)
	}
}

func TestInvokable(t *testing.T) {
	for status, want := range map[AgentStatus]bool{
		StatusOnline:  true,
		StatusBusy:    true,
		StatusOffline: false,
	} {
		a := &Agent{Status: status}
		if got := a.Invokable(); got != want {
			t.Errorf("Invokable() with status %s = %v, want %v", status, got, want)
		}
	}
}
