package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dafgraph/backend/pkg/common"
)

func TestUpsertPreservesCreatedAt(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.SetClock(func() time.Time { return now })

	ctx := context.Background()
	unit := common.DiscourseUnit{PageRef: "Berakhot 2a", Title: "first", Strategy: common.StrategyHeuristic}
	if err := s.UpsertDiscourseUnit(ctx, unit); err != nil {
		t.Fatalf("UpsertDiscourseUnit() error = %v", err)
	}

	now = base.Add(time.Hour)
	unit.Title = "second"
	if err := s.UpsertDiscourseUnit(ctx, unit); err != nil {
		t.Fatalf("UpsertDiscourseUnit() error = %v", err)
	}

	got, err := s.GetDiscourseUnit(ctx, "Berakhot 2a")
	if err != nil {
		t.Fatalf("GetDiscourseUnit() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetDiscourseUnit() = nil after upsert")
	}
	if got.Title != "second" {
		t.Errorf("unit title = %q, want updated title", got.Title)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want original %v", got.CreatedAt, base)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, base.Add(time.Hour))
	}

	units, err := s.ListDiscourseUnits(ctx)
	if err != nil {
		t.Fatalf("ListDiscourseUnits() error = %v", err)
	}
	if len(units) != 1 {
		t.Errorf("ListDiscourseUnits() returned %d units, want 1 after re-upsert", len(units))
	}
}

func TestReplaceStepsSwapsCompleteSet(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := []common.StepNode{
		{ID: "Berakhot 2a-1", PageRef: "Berakhot 2a", Type: common.StepTeaching, Sequence: 1},
		{ID: "Berakhot 2a-2", PageRef: "Berakhot 2a", Type: common.StepQuestion, Sequence: 2, ParentSequence: 1},
		{ID: "Berakhot 2a-3", PageRef: "Berakhot 2a", Type: common.StepResolution, Sequence: 3, ParentSequence: 2},
	}
	if err := s.ReplaceSteps(ctx, "Berakhot 2a", first); err != nil {
		t.Fatalf("ReplaceSteps() error = %v", err)
	}

	second := []common.StepNode{
		{ID: "Berakhot 2a-1", PageRef: "Berakhot 2a", Type: common.StepTeaching, Sequence: 1},
		{ID: "Berakhot 2a-2", PageRef: "Berakhot 2a", Type: common.StepChallenge, Sequence: 2, ParentSequence: 1},
	}
	if err := s.ReplaceSteps(ctx, "Berakhot 2a", second); err != nil {
		t.Fatalf("ReplaceSteps() error = %v", err)
	}

	got, err := s.GetSteps(ctx, "Berakhot 2a")
	if err != nil {
		t.Fatalf("GetSteps() error = %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Errorf("GetSteps() = %+v, want the replacement set with no orphans", got)
	}
}

func TestReplaceStepsFailureLeavesPriorState(t *testing.T) {
	s := New()
	ctx := context.Background()

	steps := []common.StepNode{
		{ID: "Berakhot 2a-1", PageRef: "Berakhot 2a", Type: common.StepTeaching, Sequence: 1},
	}
	if err := s.ReplaceSteps(ctx, "Berakhot 2a", steps); err != nil {
		t.Fatalf("ReplaceSteps() error = %v", err)
	}

	s.FailReplace = true
	err := s.ReplaceSteps(ctx, "Berakhot 2a", []common.StepNode{
		{ID: "Berakhot 2a-1", Type: common.StepDispute, Sequence: 1},
	})
	if !errors.Is(err, common.ErrPersistence) {
		t.Fatalf("ReplaceSteps() error = %v, want ErrPersistence", err)
	}

	got, err := s.GetSteps(ctx, "Berakhot 2a")
	if err != nil {
		t.Fatalf("GetSteps() error = %v", err)
	}
	if !reflect.DeepEqual(got, steps) {
		t.Errorf("GetSteps() after failed replace = %+v, want prior state intact", got)
	}
}

func TestLinkSegments(t *testing.T) {
	s := New()
	ctx := context.Background()

	ids := []string{"Berakhot 2a:1", "Berakhot 2a:2"}
	if err := s.LinkSegments(ctx, "Berakhot 2a", ids); err != nil {
		t.Fatalf("LinkSegments() error = %v", err)
	}
	if got := s.LinkedSegments("Berakhot 2a"); !reflect.DeepEqual(got, ids) {
		t.Errorf("LinkedSegments() = %v, want %v", got, ids)
	}
}

func TestGetDiscourseUnitAbsent(t *testing.T) {
	s := New()
	got, err := s.GetDiscourseUnit(context.Background(), "Sanhedrin 90a")
	if err != nil {
		t.Fatalf("GetDiscourseUnit() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetDiscourseUnit() = %+v, want nil for unknown page", got)
	}
}
