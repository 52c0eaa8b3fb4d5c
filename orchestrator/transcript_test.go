// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/forge-foundation/forge/lib/rpc"
	"github.com/forge-foundation/forge/lib/schema"
	"github.com/forge-foundation/forge/lib/testutil"
)

func TestGetTranscriptPaging(t *testing.T) {
	service, _, store, _ := newTestService(t)
	registerAgent(t, store, "a1", "ws1")
	for i, content := range []string{"one", "two", "three"} {
		appendEntry(t, store, "a1", schema.TranscriptEntry{
			Type:      schema.EntryTypeOutput,
			Content:   content,
			Timestamp: testEpoch.Add(time.Duration(i) * time.Minute),
		})
	}

	page, err := service.GetTranscript(context.Background(), TranscriptRequest{
		AgentID: "a1",
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if len(page.Entries) != 2 || page.Entries[0].ID != 0 || page.Entries[1].ID != 1 {
		t.Fatalf("page entries = %+v", page.Entries)
	}
	if !page.HasMore {
		t.Fatal("has_more = false on a truncated page")
	}
	// The cursor resumes just past the last returned entry.
	if page.NextCursor != "2" {
		t.Fatalf("next_cursor = %q, want 2", page.NextCursor)
	}

	full, err := service.GetTranscript(context.Background(), TranscriptRequest{AgentID: "a1"})
	if err != nil {
		t.Fatalf("GetTranscript without limit: %v", err)
	}
	if len(full.Entries) != 3 || full.HasMore || full.NextCursor != "" {
		t.Fatalf("full page = %d entries, has_more=%v, cursor=%q",
			len(full.Entries), full.HasMore, full.NextCursor)
	}
}

func TestGetTranscriptTimeBoundsInclusive(t *testing.T) {
	service, _, store, _ := newTestService(t)
	registerAgent(t, store, "a1", "ws1")
	for i := range 3 {
		appendEntry(t, store, "a1", schema.TranscriptEntry{
			Type:      schema.EntryTypeOutput,
			Content:   "entry",
			Timestamp: testEpoch.Add(time.Duration(i) * time.Minute),
		})
	}

	middle := testEpoch.Add(time.Minute)
	page, err := service.GetTranscript(context.Background(), TranscriptRequest{
		AgentID:   "a1",
		StartTime: &middle,
		EndTime:   &middle,
	})
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	// start == end == the middle entry's timestamp selects exactly it.
	if len(page.Entries) != 1 || page.Entries[0].ID != 1 {
		t.Fatalf("bounded page = %+v", page.Entries)
	}
}

func TestGetTranscriptErrors(t *testing.T) {
	service, _, _, _ := newTestService(t)

	_, err := service.GetTranscript(context.Background(), TranscriptRequest{AgentID: "  "})
	requireCode(t, err, rpc.CodeInvalidArgument)

	_, err = service.GetTranscript(context.Background(), TranscriptRequest{AgentID: "ghost"})
	requireCode(t, err, rpc.CodeNotFound)
}

func startTranscriptStream(t *testing.T, service *Service, ctx context.Context, req StreamTranscriptRequest) (<-chan TranscriptBatch, <-chan error) {
	t.Helper()
	batches := make(chan TranscriptBatch, 16)
	done := make(chan error, 1)
	go func() {
		done <- service.StreamTranscript(ctx, req, func(batch TranscriptBatch) error {
			batches <- batch
			return nil
		})
	}()
	return batches, done
}

func TestStreamTranscriptFollows(t *testing.T) {
	service, _, store, clk := newTestService(t)
	registerAgent(t, store, "a1", "ws1")
	appendEntry(t, store, "a1", schema.TranscriptEntry{
		Type: schema.EntryTypeOutput, Content: "one", Timestamp: testEpoch,
	})
	appendEntry(t, store, "a1", schema.TranscriptEntry{
		Type: schema.EntryTypeOutput, Content: "two", Timestamp: testEpoch,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, _ := startTranscriptStream(t, service, ctx, StreamTranscriptRequest{AgentID: "a1"})

	clk.WaitForTimers(1)
	clk.Advance(transcriptPollInterval)

	first := testutil.RequireReceive(t, batches, 5*time.Second, "no initial batch")
	if len(first.Entries) != 2 || first.Entries[0].ID != 0 || first.Entries[1].ID != 1 {
		t.Fatalf("initial batch = %+v", first.Entries)
	}
	if first.Cursor != "2" {
		t.Fatalf("initial batch cursor = %q, want 2", first.Cursor)
	}

	// New entries arrive as their own batch; already-sent entries are
	// never replayed.
	appendEntry(t, store, "a1", schema.TranscriptEntry{
		Type: schema.EntryTypeOutput, Content: "three", Timestamp: testEpoch,
	})
	clk.Advance(transcriptPollInterval)

	next := testutil.RequireReceive(t, batches, 5*time.Second, "no follow-up batch")
	if len(next.Entries) != 1 || next.Entries[0].Content != "three" {
		t.Fatalf("follow-up batch = %+v", next.Entries)
	}
	if next.Cursor != "3" {
		t.Fatalf("follow-up cursor = %q, want 3", next.Cursor)
	}
}

func TestStreamTranscriptResumeFromCursor(t *testing.T) {
	service, _, store, clk := newTestService(t)
	registerAgent(t, store, "a1", "ws1")
	for _, content := range []string{"one", "two", "three"} {
		appendEntry(t, store, "a1", schema.TranscriptEntry{
			Type: schema.EntryTypeOutput, Content: content, Timestamp: testEpoch,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, _ := startTranscriptStream(t, service, ctx, StreamTranscriptRequest{
		AgentID: "a1",
		Cursor:  "1",
	})

	clk.WaitForTimers(1)
	clk.Advance(transcriptPollInterval)

	batch := testutil.RequireReceive(t, batches, 5*time.Second, "no resumed batch")
	if len(batch.Entries) != 2 || batch.Entries[0].ID != 1 {
		t.Fatalf("resumed batch = %+v", batch.Entries)
	}
}

func TestStreamTranscriptAgentVanishes(t *testing.T) {
	service, _, store, clk := newTestService(t)
	registerAgent(t, store, "a1", "ws1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done := startTranscriptStream(t, service, ctx, StreamTranscriptRequest{AgentID: "a1"})

	clk.WaitForTimers(1)
	store.Remove("a1")
	clk.Advance(transcriptPollInterval)

	err := testutil.RequireReceive(t, done, 5*time.Second, "stream did not end")
	requireCode(t, err, rpc.CodeNotFound)
}

func TestStreamTranscriptValidation(t *testing.T) {
	service, _, _, _ := newTestService(t)

	err := service.StreamTranscript(context.Background(), StreamTranscriptRequest{AgentID: ""}, nil)
	requireCode(t, err, rpc.CodeInvalidArgument)

	err = service.StreamTranscript(context.Background(), StreamTranscriptRequest{
		AgentID: "a1",
		Cursor:  "abc",
	}, nil)
	requireCode(t, err, rpc.CodeInvalidArgument)
}

func TestStreamTranscriptEndsOnCancel(t *testing.T) {
	service, _, store, clk := newTestService(t)
	registerAgent(t, store, "a1", "ws1")

	ctx, cancel := context.WithCancel(context.Background())
	_, done := startTranscriptStream(t, service, ctx, StreamTranscriptRequest{AgentID: "a1"})

	clk.WaitForTimers(1)
	cancel()

	err := testutil.RequireReceive(t, done, 5*time.Second, "stream did not end on cancel")
	if err != context.Canceled {
		t.Fatalf("stream error = %v, want context.Canceled", err)
	}
}
