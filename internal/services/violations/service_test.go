package violations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ivankudzin/miraclemap/internal/domain/enums"
	"github.com/ivankudzin/miraclemap/internal/domain/model"
	"github.com/ivankudzin/miraclemap/internal/repo/memory"
)

func recordN(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		kind := enums.ContentKindPrimary
		if i%3 == 0 {
			kind = enums.ContentKindRequest
		}
		vtype := enums.ViolationTypeManualRejection
		if i%2 == 0 {
			vtype = enums.ViolationTypeLexiconMatch
		}
		_, err := svc.Record(context.Background(), model.ViolationRecord{
			SubmissionID:   fmt.Sprintf("s%d", i),
			Kind:           kind,
			ViolationType:  vtype,
			FlaggedContent: "reason",
			AuthorID:       fmt.Sprintf("author-%d", i%4),
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
}

func TestRecordFillsIdentity(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, 0)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	rec, err := svc.Record(context.Background(), model.ViolationRecord{
		SubmissionID:  "s1",
		Kind:          enums.ContentKindPrimary,
		ViolationType: enums.ViolationTypePatternMatch,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.ID == "" || !rec.CreatedAt.Equal(fixed) {
		t.Fatalf("expected id and createdAt to be filled: %+v", rec)
	}
}

func TestRecordValidates(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, 0)

	cases := []model.ViolationRecord{
		{Kind: enums.ContentKindPrimary, ViolationType: enums.ViolationTypeManualRejection},
		{SubmissionID: "s1", Kind: "x", ViolationType: enums.ViolationTypeManualRejection},
		{SubmissionID: "s1", Kind: enums.ContentKindPrimary, ViolationType: "x"},
	}
	for i, rec := range cases {
		if _, err := svc.Record(context.Background(), rec); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestStatsConsistency(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), nil, 0)
	recordN(t, svc, 80)

	for _, window := range []int{-1, 0, 5, 10, 25, 100, 1000} {
		stats, err := svc.Stats(ctx, window)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		recent, err := svc.Recent(ctx, window, 0)
		if err != nil {
			t.Fatalf("recent: %v", err)
		}
		if stats.Total != len(recent) {
			t.Fatalf("window %d: total=%d recent=%d", window, stats.Total, len(recent))
		}

		byType := 0
		for _, n := range stats.ByViolationType {
			byType += n
		}
		byKind := 0
		for _, n := range stats.ByContentKind {
			byKind += n
		}
		if byType != stats.Total || byKind != stats.Total {
			t.Fatalf("window %d: groupings do not sum to total: type=%d kind=%d total=%d", window, byType, byKind, stats.Total)
		}

		wantSample := stats.Total
		if wantSample > StatsSampleSize {
			wantSample = StatsSampleSize
		}
		if len(stats.Recent) != wantSample {
			t.Fatalf("window %d: unexpected sample size %d", window, len(stats.Recent))
		}
		if stats.Total > 0 && stats.Recent[0].SubmissionID != "s79" {
			t.Fatalf("window %d: sample is not newest first: %s", window, stats.Recent[0].SubmissionID)
		}
	}
}

func TestStatsDefaultWindow(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, 0)
	recordN(t, svc, 120)

	stats, err := svc.Stats(context.Background(), 0)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != DefaultStatsWindow {
		t.Fatalf("expected default window of %d, got %d", DefaultStatsWindow, stats.Total)
	}
}

func TestRecentLimits(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, 40)
	recordN(t, svc, 60)

	got, _ := svc.Recent(context.Background(), 0, 0)
	if len(got) != 40 {
		t.Fatalf("expected the stats window as default limit, got %d", len(got))
	}
	got, _ = svc.Recent(context.Background(), 3, 0)
	if len(got) != 3 || got[0].SubmissionID != "s59" {
		t.Fatalf("unexpected recent page: %+v", got)
	}
}

func TestRecentPagesWithOffset(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), nil, 0)
	recordN(t, svc, 7)

	first, err := svc.Recent(ctx, 3, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	second, _ := svc.Recent(ctx, 3, 3)
	third, _ := svc.Recent(ctx, 3, 6)
	if len(first) != 3 || len(second) != 3 || len(third) != 1 {
		t.Fatalf("unexpected page sizes: %d %d %d", len(first), len(second), len(third))
	}
	if first[0].SubmissionID != "s6" || second[0].SubmissionID != "s3" || third[0].SubmissionID != "s0" {
		t.Fatalf("pages out of order: %s %s %s", first[0].SubmissionID, second[0].SubmissionID, third[0].SubmissionID)
	}

	past, _ := svc.Recent(ctx, 3, 10)
	if len(past) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(past))
	}
	if _, err := svc.Recent(ctx, 3, -1); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for negative offset, got %v", err)
	}
}

func TestByAuthor(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, 0)
	recordN(t, svc, 8)

	got, err := svc.ByAuthor(context.Background(), "author-1", 10)
	if err != nil {
		t.Fatalf("by author: %v", err)
	}
	if len(got) != 2 || got[0].SubmissionID != "s5" || got[1].SubmissionID != "s1" {
		t.Fatalf("unexpected author violations: %+v", got)
	}

	if _, err := svc.ByAuthor(context.Background(), " ", 10); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty author, got %v", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	if stats.Total != 0 || len(stats.Recent) != 0 || stats.ByViolationType == nil {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}
}
