package observability

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lyricsroman/dbopen"
	"github.com/hazyhaar/lyricsroman/kit"
	"github.com/hazyhaar/lyricsroman/romanize"
)

func TestMetricsManager_FlushOnClose(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	mm := NewMetricsManager(db, 100, time.Hour, nil)

	mm.Record(&Metric{Name: "a", Timestamp: time.UnixMilli(1000), Value: 1, Unit: "count"})
	mm.Record(&Metric{Name: "a", Timestamp: time.UnixMilli(2000), Value: 2, Unit: "count", Labels: map[string]string{"k": "v"}})
	mm.Record(&Metric{Name: "b", Timestamp: time.UnixMilli(3000), Value: 3})
	if err := mm.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := mm.Query(context.Background(), "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Value != 2 || got[0].Labels["k"] != "v" {
		t.Fatalf("got %+v", got)
	}
	all, err := mm.Query(context.Background(), "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Name != "b" {
		t.Fatalf("all = %+v", all)
	}
}

func TestMetricsManager_FlushWhenFull(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	mm := NewMetricsManager(db, 2, time.Hour, nil)
	defer mm.Close()

	mm.Record(&Metric{Name: "x", Timestamp: time.Now(), Value: 1})
	mm.Record(&Metric{Name: "x", Timestamp: time.Now(), Value: 1})

	got, err := mm.Query(context.Background(), "x", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("flushed %d, want 2", len(got))
	}
}

func TestMeasureHandler(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	mm := NewMetricsManager(db, 100, time.Hour, nil)

	h := MeasureHandler(mm, func(_ context.Context, req romanize.Request) romanize.Response {
		if req.Text == "bad" {
			return romanize.Failed(romanize.Errorf(romanize.TabLoadTimeout, "orchestrator", "tab loading timeout"))
		}
		return romanize.Succeeded("ok")
	})

	ctx := kit.WithTransport(context.Background(), "http")
	if resp := h(ctx, romanize.NewRequest("good")); !resp.Success {
		t.Fatalf("resp = %+v", resp)
	}
	if resp := h(ctx, romanize.NewRequest("bad")); resp.Success {
		t.Fatalf("resp = %+v", resp)
	}
	mm.Close()

	got, err := mm.Query(context.Background(), MetricRomanizeCount, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("count rows = %d, want 2", len(got))
	}
	results := map[string]bool{}
	for _, m := range got {
		if m.Labels["transport"] != "http" {
			t.Fatalf("labels = %v", m.Labels)
		}
		results[m.Labels["result"]] = true
	}
	if !results["ok"] || !results[string(romanize.TabLoadTimeout)] {
		t.Fatalf("results = %v", results)
	}
}
