package app_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"gosplit/adapters/memstore"
	"gosplit/app"
	"gosplit/domain/core"
	"gosplit/domain/experiment"
	"gosplit/internal/testkit"
)

func newKit(t *testing.T) *testkit.Kit {
	t.Helper()
	kit, err := testkit.New(context.Background())
	if err != nil {
		t.Fatalf("testkit.New() failed: %v", err)
	}
	return kit
}

func startedExperiment(t *testing.T, kit *testkit.Kit, def app.ExperimentDefinition) core.TestID {
	t.Helper()
	ctx := context.Background()
	id, err := kit.Core.CreateExperiment(ctx, def)
	if err != nil {
		t.Fatalf("CreateExperiment() failed: %v", err)
	}
	if err := kit.Core.StartExperiment(ctx, id); err != nil {
		t.Fatalf("StartExperiment() failed: %v", err)
	}
	return id
}

func variantByName(t *testing.T, exp *experiment.Experiment, name string) experiment.Variant {
	t.Helper()
	for _, v := range exp.Variants {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("no variant named %q", name)
	return experiment.Variant{}
}

func TestCreateExperiment_Validation(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*app.ExperimentDefinition)
	}{
		{
			name: "weights sum to 90",
			mutate: func(def *app.ExperimentDefinition) {
				def.Variants[0].Weight = 40
			},
		},
		{
			name: "two controls",
			mutate: func(def *app.ExperimentDefinition) {
				def.Variants[1].IsControl = true
			},
		},
		{
			name: "one variant",
			mutate: func(def *app.ExperimentDefinition) {
				def.Variants = def.Variants[:1]
				def.Variants[0].Weight = 100
			},
		},
		{
			name: "missing primary metric",
			mutate: func(def *app.ExperimentDefinition) {
				def.Metrics.Primary = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testkit.TwoVariantDefinition("invalid experiment", "signup")
			tt.mutate(&def)

			_, err := kit.Core.CreateExperiment(ctx, def)
			if !core.IsValidationError(err) {
				t.Errorf("CreateExperiment() error = %v, want validation error", err)
			}
		})
	}
}

func TestLifecycle(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()

	id, err := kit.Core.CreateExperiment(ctx, testkit.TwoVariantDefinition("lifecycle", "signup"))
	if err != nil {
		t.Fatalf("CreateExperiment() failed: %v", err)
	}

	exp, err := kit.Core.GetExperiment(ctx, id)
	if err != nil {
		t.Fatalf("GetExperiment() failed: %v", err)
	}
	if exp.Status != experiment.StatusDraft {
		t.Errorf("new experiment status = %s, want draft", exp.Status)
	}

	if err := kit.Core.StartExperiment(ctx, id); err != nil {
		t.Fatalf("StartExperiment() failed: %v", err)
	}
	exp, _ = kit.Core.GetExperiment(ctx, id)
	if exp.Status != experiment.StatusRunning {
		t.Errorf("started experiment status = %s, want running", exp.Status)
	}
	if exp.StartDate.IsZero() {
		t.Error("StartExperiment did not stamp the start date")
	}
	if exp.Statistical.MinimumSampleSize <= 0 {
		t.Error("StartExperiment did not compute a minimum sample size")
	}

	// second start is illegal
	if err := kit.Core.StartExperiment(ctx, id); !core.IsInvalidStateError(err) {
		t.Errorf("second StartExperiment() error = %v, want invalid state", err)
	}

	results, err := kit.Core.StopExperiment(ctx, id, "done")
	if err != nil {
		t.Fatalf("StopExperiment() failed: %v", err)
	}
	if results == nil {
		t.Fatal("StopExperiment() returned nil results")
	}
	exp, _ = kit.Core.GetExperiment(ctx, id)
	if exp.Status != experiment.StatusCompleted {
		t.Errorf("stopped experiment status = %s, want completed", exp.Status)
	}
	if exp.EndDate == nil {
		t.Error("StopExperiment did not stamp the end date")
	}
	if exp.StopReason != "done" {
		t.Errorf("stop reason = %q, want %q", exp.StopReason, "done")
	}
}

func TestStopExperiment_Idempotency(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()
	id := startedExperiment(t, kit, testkit.TwoVariantDefinition("double stop", "signup"))

	if _, err := kit.Core.StopExperiment(ctx, id, ""); err != nil {
		t.Fatalf("first StopExperiment() failed: %v", err)
	}
	if _, err := kit.Core.StopExperiment(ctx, id, ""); !core.IsInvalidStateError(err) {
		t.Errorf("second StopExperiment() error = %v, want invalid state", err)
	}
}

func TestLifecycle_NotFound(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()

	if err := kit.Core.StartExperiment(ctx, "missing"); !core.IsNotFoundError(err) {
		t.Errorf("StartExperiment(missing) error = %v, want not found", err)
	}
	if _, err := kit.Core.StopExperiment(ctx, "missing", ""); !core.IsNotFoundError(err) {
		t.Errorf("StopExperiment(missing) error = %v, want not found", err)
	}
	if _, err := kit.Core.GetResults(ctx, "missing"); !core.IsNotFoundError(err) {
		t.Errorf("GetResults(missing) error = %v, want not found", err)
	}
}

func TestPauseResume(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()
	id := startedExperiment(t, kit, testkit.TwoVariantDefinition("pause gating", "signup"))

	if err := kit.Core.PauseExperiment(ctx, id); err != nil {
		t.Fatalf("PauseExperiment() failed: %v", err)
	}

	// no new assignment while paused
	_, assigned, err := kit.Core.Assign(ctx, "paused-user", id)
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if assigned {
		t.Error("Assign() assigned a user to a paused experiment")
	}

	// a paused experiment cannot be stopped, it must resume first
	if _, err := kit.Core.StopExperiment(ctx, id, ""); !core.IsInvalidStateError(err) {
		t.Errorf("StopExperiment() on paused experiment error = %v, want invalid state", err)
	}

	if err := kit.Core.ResumeExperiment(ctx, id); err != nil {
		t.Fatalf("ResumeExperiment() failed: %v", err)
	}
	_, assigned, err = kit.Core.Assign(ctx, "paused-user", id)
	if err != nil {
		t.Fatalf("Assign() after resume failed: %v", err)
	}
	if !assigned {
		t.Error("Assign() refused a user after resume")
	}

	// pause is only legal from running
	if err := kit.Core.ResumeExperiment(ctx, id); !core.IsInvalidStateError(err) {
		t.Errorf("ResumeExperiment() on running experiment error = %v, want invalid state", err)
	}

	// once resumed, stopping works
	if _, err := kit.Core.StopExperiment(ctx, id, ""); err != nil {
		t.Fatalf("StopExperiment() after resume failed: %v", err)
	}
}

func TestAssign_Deterministic(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()
	id := startedExperiment(t, kit, testkit.TwoVariantDefinition("determinism", "signup"))

	userID := core.UserID("stable-user")
	first, assigned, err := kit.Core.Assign(ctx, userID, id)
	if err != nil || !assigned {
		t.Fatalf("Assign() = (%v, %t, %v)", first, assigned, err)
	}
	for i := 0; i < 50; i++ {
		got, _, err := kit.Core.Assign(ctx, userID, id)
		if err != nil {
			t.Fatalf("repeat Assign() failed: %v", err)
		}
		if got != first {
			t.Fatalf("Assign() returned %s then %s for the same user", first, got)
		}
	}
}

func TestAssign_StableAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	first, err := app.New(ctx, store)
	if err != nil {
		t.Fatalf("app.New() failed: %v", err)
	}
	id, err := first.CreateExperiment(ctx, testkit.TwoVariantDefinition("restart", "signup"))
	if err != nil {
		t.Fatalf("CreateExperiment() failed: %v", err)
	}
	if err := first.StartExperiment(ctx, id); err != nil {
		t.Fatalf("StartExperiment() failed: %v", err)
	}

	assignments := make(map[core.UserID]core.VariantID)
	for i := 0; i < 200; i++ {
		userID := core.UserID(fmt.Sprintf("restart-user-%d", i))
		variantID, assigned, err := first.Assign(ctx, userID, id)
		if err != nil {
			t.Fatalf("Assign() failed: %v", err)
		}
		if assigned {
			assignments[userID] = variantID
		}
	}

	// a fresh core over the same store must reproduce every assignment
	second, err := app.New(ctx, store)
	if err != nil {
		t.Fatalf("app.New() over existing store failed: %v", err)
	}
	for userID, want := range assignments {
		got, assigned, err := second.Assign(ctx, userID, id)
		if err != nil || !assigned {
			t.Fatalf("Assign() after restart = (%v, %t, %v)", got, assigned, err)
		}
		if got != want {
			t.Errorf("user %s got %s after restart, want %s", userID, got, want)
		}
	}
}

func TestAssign_WeightConformance(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()
	id := startedExperiment(t, kit, testkit.TwoVariantDefinition("weights", "signup"))
	exp, _ := kit.Core.GetExperiment(ctx, id)
	control := variantByName(t, exp, "control")

	const population = 2000
	controlCount := 0
	for _, userID := range testkit.NewPopulation(7).Users(population) {
		variantID, assigned, err := kit.Core.Assign(ctx, userID, id)
		if err != nil {
			t.Fatalf("Assign() failed: %v", err)
		}
		if !assigned {
			t.Fatalf("user excluded from a 100%% inclusion experiment")
		}
		if variantID == control.ID {
			controlCount++
		}
	}

	share := float64(controlCount) / population * 100
	if math.Abs(share-50) > 4 {
		t.Errorf("control share = %.1f%%, want 50%% ± 4pp", share)
	}
}

func TestAssign_WeightConformance_LargePopulation(t *testing.T) {
	// the pure selection path scales to a population large enough for
	// the ±2pp bound without dragging the store along
	exp := &experiment.Experiment{
		ID: "bulk-weights",
		Variants: []experiment.Variant{
			{ID: "control", Name: "control", Weight: 50, IsControl: true},
			{ID: "treatment", Name: "treatment", Weight: 50},
		},
	}

	const population = 100000
	controlCount := 0
	for i := 0; i < population; i++ {
		userID := core.UserID(fmt.Sprintf("bulk-user-%06d", i))
		bucket := core.Bucket(userID, exp.ID, core.SaltVariant)
		if exp.SelectVariant(bucket).ID == "control" {
			controlCount++
		}
	}

	share := float64(controlCount) / population * 100
	if math.Abs(share-50) > 2 {
		t.Errorf("control share = %.2f%%, want 50%% ± 2pp", share)
	}
}

func TestAssign_InclusionGating(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()

	def := testkit.TwoVariantDefinition("partial rollout", "signup")
	def.TargetAudience.Percentage = 30
	id := startedExperiment(t, kit, def)

	const population = 3000
	included := 0
	for _, userID := range testkit.NewPopulation(11).Users(population) {
		_, assigned, err := kit.Core.Assign(ctx, userID, id)
		if err != nil {
			t.Fatalf("Assign() failed: %v", err)
		}
		if assigned {
			included++
		}
	}

	share := float64(included) / population * 100
	if math.Abs(share-30) > 4 {
		t.Errorf("included share = %.1f%%, want 30%% ± 4pp", share)
	}

	// exclusion is deterministic too: re-running assigns nobody new
	results, err := kit.Core.GetResults(ctx, id)
	if err != nil {
		t.Fatalf("GetResults() failed: %v", err)
	}
	if results.ParticipantCount != included {
		t.Errorf("participant count = %d, want %d", results.ParticipantCount, included)
	}
}

func TestAssign_NonRunning(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()

	id, err := kit.Core.CreateExperiment(ctx, testkit.TwoVariantDefinition("draft only", "signup"))
	if err != nil {
		t.Fatalf("CreateExperiment() failed: %v", err)
	}

	_, assigned, err := kit.Core.Assign(ctx, "early-user", id)
	if err != nil {
		t.Fatalf("Assign() on draft failed: %v", err)
	}
	if assigned {
		t.Error("Assign() assigned a user to a draft experiment")
	}

	if _, _, err := kit.Core.Assign(ctx, "early-user", "missing"); !core.IsNotFoundError(err) {
		t.Errorf("Assign(missing test) error = %v, want not found", err)
	}
}

func TestAssign_ConcurrentSameUser(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()
	id := startedExperiment(t, kit, testkit.TwoVariantDefinition("racing", "signup"))

	const goroutines = 50
	variants := make([]core.VariantID, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			variantID, _, err := kit.Core.Assign(ctx, "contended-user", id)
			if err != nil {
				t.Errorf("Assign() failed: %v", err)
				return
			}
			variants[i] = variantID
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if variants[i] != variants[0] {
			t.Fatalf("concurrent Assign() produced different variants: %s vs %s", variants[0], variants[i])
		}
	}

	results, err := kit.Core.GetResults(ctx, id)
	if err != nil {
		t.Fatalf("GetResults() failed: %v", err)
	}
	if results.ParticipantCount != 1 {
		t.Errorf("participant count = %d after racing assigns, want 1", results.ParticipantCount)
	}
}

func TestTrackEvent_SilentNoOps(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()
	id := startedExperiment(t, kit, testkit.TwoVariantDefinition("tracking", "signup"))

	// unassigned user: no error, no event
	if err := kit.Core.TrackEvent(ctx, "stranger", id, "signup", 1, nil); err != nil {
		t.Errorf("TrackEvent() for unassigned user error = %v, want nil", err)
	}

	if _, _, err := kit.Core.Assign(ctx, "member", id); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if _, err := kit.Core.StopExperiment(ctx, id, ""); err != nil {
		t.Fatalf("StopExperiment() failed: %v", err)
	}

	// stopped experiment: also a silent no-op
	if err := kit.Core.TrackEvent(ctx, "member", id, "signup", 1, nil); err != nil {
		t.Errorf("TrackEvent() on completed experiment error = %v, want nil", err)
	}

	results, err := kit.Core.GetResults(ctx, id)
	if err != nil {
		t.Fatalf("GetResults() failed: %v", err)
	}
	for _, vr := range results.Variants {
		if mr := vr.Metrics["signup"]; mr.Conversions != 0 {
			t.Errorf("variant %s recorded %d conversions from no-op tracking", vr.Name, mr.Conversions)
		}
	}
}

func TestTrackEvent_FirstExposureAndConversions(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()

	def := testkit.TwoVariantDefinition("exposure bookkeeping", "signup")
	def.Metrics.Secondary = []string{"newsletter"}
	id := startedExperiment(t, kit, def)

	if _, _, err := kit.Core.Assign(ctx, "tracked-user", id); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	for _, name := range []string{"exposure", "exposure", "signup", "newsletter", "scrolled"} {
		if err := kit.Core.TrackEvent(ctx, "tracked-user", id, name, 1, nil); err != nil {
			t.Fatalf("TrackEvent(%s) failed: %v", name, err)
		}
	}

	results, err := kit.Core.GetResults(ctx, id)
	if err != nil {
		t.Fatalf("GetResults() failed: %v", err)
	}

	var assignedVariant *experiment.VariantResult
	for i := range results.Variants {
		if results.Variants[i].Metrics["signup"].Exposures > 0 {
			assignedVariant = &results.Variants[i]
		}
	}
	if assignedVariant == nil {
		t.Fatal("no variant recorded exposures")
	}
	if got := assignedVariant.Metrics["signup"].Exposures; got != 2 {
		t.Errorf("exposures = %d, want 2", got)
	}
	if got := assignedVariant.Metrics["signup"].Conversions; got != 1 {
		t.Errorf("signup conversions = %d, want 1", got)
	}
	if got := assignedVariant.Metrics["newsletter"].Conversions; got != 1 {
		t.Errorf("newsletter conversions = %d, want 1", got)
	}
}

func TestGetResults_ZeroData(t *testing.T) {
	kit := newKit(t)
	ctx := context.Background()
	id := startedExperiment(t, kit, testkit.TwoVariantDefinition("fresh start", "signup"))

	results, err := kit.Core.GetResults(ctx, id)
	if err != nil {
		t.Fatalf("GetResults() failed: %v", err)
	}

	if results.ParticipantCount != 0 {
		t.Errorf("participant count = %d, want 0", results.ParticipantCount)
	}
	if results.Winner != nil {
		t.Errorf("winner = %+v, want none", results.Winner)
	}
	if results.Summary.Recommendation != experiment.RecommendContinueTest {
		t.Errorf("recommendation = %s, want continue_test", results.Summary.Recommendation)
	}
}
