// SPDX-License-Identifier: MPL-2.0

package pipefile

import (
	"testing"
)

func samplePipefile() *Pipefile {
	return &Pipefile{
		Pipelines: []Pipeline{
			{Name: "build", Steps: []Step{{Run: "make build"}}},
			{Name: "test", Steps: []Step{{Run: "make test"}}},
			{Name: "docs", Steps: []Step{{Run: "make docs"}}, Runner: RunnerVirtual},
		},
		Groups: []Group{
			{Name: "default", Pipelines: []string{"build", "test"}},
			{Name: "release", Pipelines: []string{"build", "docs"}},
		},
	}
}

func TestGetPipeline(t *testing.T) {
	t.Parallel()

	pf := samplePipefile()

	p, ok := pf.GetPipeline("test")
	if !ok || p.Name != "test" {
		t.Fatalf("GetPipeline(test) = %v, %v", p, ok)
	}
	if _, ok := pf.GetPipeline("nope"); ok {
		t.Error("GetPipeline(nope) should report absent")
	}
}

func TestResolveGroup(t *testing.T) {
	t.Parallel()

	pf := samplePipefile()

	members, err := pf.ResolveGroup("release")
	if err != nil {
		t.Fatalf("ResolveGroup: %v", err)
	}
	if len(members) != 2 || members[0].Name != "build" || members[1].Name != "docs" {
		t.Errorf("ResolveGroup(release) = %v, want [build docs] in order", memberNames(members))
	}

	if _, err := pf.ResolveGroup("nope"); err == nil {
		t.Error("ResolveGroup(nope) should fail")
	}

	pf.Groups = append(pf.Groups, Group{Name: "broken", Pipelines: []string{"ghost"}})
	if _, err := pf.ResolveGroup("broken"); err == nil {
		t.Error("ResolveGroup(broken) should fail on the unknown member")
	}
}

func memberNames(members []*Pipeline) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

func TestDefaultTargets(t *testing.T) {
	t.Parallel()

	pf := samplePipefile()
	got := pf.DefaultTargets()
	if len(got) != 2 || got[0] != "build" || got[1] != "test" {
		t.Errorf("DefaultTargets = %v, want the default group's members", got)
	}

	// Without a default group, every pipeline runs in declaration order.
	pf.Groups = nil
	got = pf.DefaultTargets()
	if len(got) != 3 || got[0] != "build" || got[2] != "docs" {
		t.Errorf("DefaultTargets = %v, want all pipelines in order", got)
	}
}

func TestEffectiveRunner(t *testing.T) {
	t.Parallel()

	pf := samplePipefile()

	build, _ := pf.GetPipeline("build")
	docs, _ := pf.GetPipeline("docs")

	if got := pf.EffectiveRunner(build); got != RunnerNative {
		t.Errorf("EffectiveRunner(build) = %q, want native fallback", got)
	}
	if got := pf.EffectiveRunner(docs); got != RunnerVirtual {
		t.Errorf("EffectiveRunner(docs) = %q, want the pipeline override", got)
	}

	pf.DefaultRunner = RunnerVirtual
	if got := pf.EffectiveRunner(build); got != RunnerVirtual {
		t.Errorf("EffectiveRunner(build) = %q, want the pipefile default", got)
	}
}

func TestRunnerModeIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode RunnerMode
		want bool
	}{
		{"", true},
		{RunnerNative, true},
		{RunnerVirtual, true},
		{"container", false},
		{"Native", false},
	}

	for _, tt := range tests {
		if got := tt.mode.IsValid(); got != tt.want {
			t.Errorf("RunnerMode(%q).IsValid() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Parallel()

	pf := &Pipefile{
		DefaultRunner: "podman",
		Pipelines: []Pipeline{
			{Name: "", Steps: []Step{{Run: "x"}}},
			{Name: "a", Steps: nil},
			{Name: "a", Steps: []Step{{Run: "  "}}},
		},
		Groups: []Group{
			{Name: "g"},
		},
	}

	errs := pf.Validate()
	if len(errs) < 5 {
		t.Fatalf("Validate returned %d errors, want at least 5: %v", len(errs), errs)
	}
}

func TestDirWithoutPath(t *testing.T) {
	t.Parallel()

	pf := &Pipefile{}
	if pf.Dir() != "." {
		t.Errorf("Dir() = %q, want .", pf.Dir())
	}
}
