package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeCommand, false},
		{LevelCommand, ScopeCommand, true},
		{LevelCommand, ScopeBuild, false},
		{LevelBuild, ScopeBuild, true},
		{LevelBuild, ScopeStage, false},
		{LevelStage, ScopeStage, true},
		{LevelStage, ScopeDetail, false},
		{LevelDebug, ScopeDetail, true},
		{LevelError, ScopeStage, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	for _, s := range []string{"off", "error", "command", "build", "stage", "debug", "STAGE"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("phase"); err == nil {
		t.Error("expected error for unknown level")
	}
	if f, err := ParseFormat("chrome"); err != nil || f != FormatChrome {
		t.Errorf("ParseFormat(chrome) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestStartSpanNestsThroughContext(t *testing.T) {
	ring := NewRingTracer(16, LevelStage)
	ctx := WithTracer(context.Background(), ring)

	outer, ctx := StartSpan(ctx, ScopeBuild, "build")
	inner, _ := StartSpan(ctx, ScopeStage, "compile")
	inner.WithExtra("kind", "Fragment").End("")
	outer.End("ok")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[1].Name != "compile" || events[1].ParentID != outer.ID() {
		t.Fatalf("compile span not parented to build: %+v", events[1])
	}
	if events[2].Extra["kind"] != "Fragment" {
		t.Fatalf("extra lost: %+v", events[2])
	}
	if events[3].Kind != KindSpanEnd || events[3].Detail != "ok" {
		t.Fatalf("unexpected last event %+v", events[3])
	}
	if events[1].Lane != events[0].Lane || events[1].Depth != 1 {
		t.Fatalf("child must share the root lane one level down: %+v", events[1])
	}
}

func TestRootSpansGetDistinctLanes(t *testing.T) {
	ring := NewRingTracer(16, LevelBuild)
	ctx := WithTracer(context.Background(), ring)

	a, actx := StartSpan(ctx, ScopeBuild, "build")
	b, _ := StartSpan(ctx, ScopeBuild, "build")
	Point(actx, ScopeBuild, "cache.error", "disk full")
	a.End("")
	b.End("")

	events := ring.Snapshot()
	if events[0].Lane == events[1].Lane {
		t.Fatalf("sibling roots share lane %d", events[0].Lane)
	}
	if events[2].Lane != events[0].Lane || events[2].ParentID != a.ID() {
		t.Fatalf("point not attached to its span: %+v", events[2])
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("sequence not increasing at %d", i)
		}
	}
}

func TestDisabledSpanStillMeasures(t *testing.T) {
	span, ctx := StartSpan(context.Background(), ScopeBuild, "build")
	if span.ID() != 0 {
		t.Fatal("nop span must have zero id")
	}
	if SpanFromContext(ctx) != nil {
		t.Fatal("nop span must not be propagated")
	}
	if span.End("") < 0 {
		t.Fatal("negative duration")
	}
	Point(ctx, ScopeDetail, "watch.event", "ignored")
}

func TestRingWrapsInOrder(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeDetail, Name: name})
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "cde" {
		t.Fatalf("snapshot = %v", names)
	}
	if ring.Dropped() != 2 {
		t.Fatalf("dropped = %d", ring.Dropped())
	}
}

func TestRingDumpChromeIsValidJSON(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeDetail, Name: name})
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatChrome); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid dump %q: %v", buf.String(), err)
	}
	if len(doc.TraceEvents) != 2 || doc.TraceEvents[0]["name"] != "b" {
		t.Fatalf("unexpected events %v", doc.TraceEvents)
	}
}

func TestHeartbeatStops(t *testing.T) {
	ring := NewRingTracer(64, LevelCommand)
	hb := StartHeartbeat(ring, time.Millisecond)
	if hb == nil {
		t.Fatal("heartbeat not started")
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()
	n := len(ring.Snapshot())
	if n == 0 {
		t.Fatal("no heartbeat recorded")
	}
	ev := ring.Snapshot()[0]
	if ev.Kind != KindHeartbeat || ev.Extra["goroutines"] == "" {
		t.Fatalf("unexpected heartbeat %+v", ev)
	}
	time.Sleep(5 * time.Millisecond)
	if len(ring.Snapshot()) != n {
		t.Fatal("heartbeat kept running after Stop")
	}
	var nilHB *Heartbeat
	nilHB.Stop()
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat on a disabled tracer")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithTracer(context.Background(), st)
	Point(ctx, ScopeDetail, "watch.add", "/s/common.glsl")

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if decoded["name"] != "watch.add" || decoded["detail"] != "/s/common.glsl" || decoded["kind"] != "point" {
		t.Fatalf("unexpected event %v", decoded)
	}
}

func TestStreamTracerChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelStage, FormatChrome)
	span := Begin(st, ScopeBuild, "build", nil)
	span.End("")
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome trace %q: %v", buf.String(), err)
	}
	if len(doc.TraceEvents) != 2 || doc.TraceEvents[0]["ph"] != "B" || doc.TraceEvents[1]["ph"] != "E" {
		t.Fatalf("unexpected events %v", doc.TraceEvents)
	}
}

func TestTextFormatSortsExtras(t *testing.T) {
	ev := &Event{Kind: KindSpanEnd, Name: "compile", Extra: map[string]string{"z": "1", "a": "2"}}
	got := string(FormatEvent(ev, FormatText))
	if !strings.Contains(got, "] ← compile {a=2, z=1}") {
		t.Fatalf("got %q", got)
	}
	ev.Depth = 2
	if got := string(FormatEvent(ev, FormatText)); !strings.Contains(got, "]     ← compile") {
		t.Fatalf("depth not indented: %q", got)
	}
}

func TestNewErrorLevelUsesRing(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatal(err)
	}
	if RingOf(tr) == nil {
		t.Fatalf("error level tracer %T should keep a ring", tr)
	}
	off, err := New(Config{Level: LevelOff})
	if err != nil || off.Enabled() {
		t.Fatalf("off tracer: %v enabled=%v", err, off.Enabled())
	}
}

func TestMultiTracerFindsRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelBuild, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("got %T", tr)
	}
	Begin(m, ScopeBuild, "build", nil).End("")
	if got := len(m.Ring().Snapshot()); got != 2 {
		t.Fatalf("ring holds %d events", got)
	}
	if !strings.Contains(buf.String(), "build") {
		t.Fatalf("stream output missing: %q", buf.String())
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []StorageMode{ModeStream, ModeRing, ModeBoth} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
