package ingest

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/journal"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
)

// Payload is a decoded worker push. A nil field was absent on the wire.
type Payload struct {
	ReferenceList   *[]listings.RankedEntry
	ComparisonAList *[]listings.RankedEntry
	ComparisonBList *[]listings.RankedEntry
	SpotOnlyList    *[]listings.RankedEntry
	Stats           *snapshot.StatsPatch
	LastUpdate      *string
}

// Observer counts push outcomes; *metrics.Registry implements it.
type Observer interface {
	Push(result string)
}

type Ingestor struct {
	Store   snapshot.Store
	Secret  string
	Journal journal.Recorder
	Metrics Observer
	Logger  *slog.Logger
	Now     func() time.Time
}

func (in *Ingestor) log() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

func (in *Ingestor) SecretConfigured() bool { return strings.TrimSpace(in.Secret) != "" }

// Ingest authenticates the push and merges the fields it carries. On any
// error the store is left untouched.
func (in *Ingestor) Ingest(ctx context.Context, p Payload, supplied string) (snapshot.Snapshot, error) {
	id := uuid.New()
	l := in.log().With("push", id.String())

	if err := in.Authorize(supplied); err != nil {
		in.finish(ctx, l, id, "auth", err, listings.Counts{})
		return snapshot.Snapshot{}, err
	}
	partial, err := in.validate(p)
	if err != nil {
		in.finish(ctx, l, id, "validation", err, listings.Counts{})
		return snapshot.Snapshot{}, err
	}

	got := in.Store.MergeFields(partial)
	in.finish(ctx, l, id, "ok", nil, listings.Counts{
		Reference:   lenOf(p.ReferenceList),
		ComparisonA: lenOf(p.ComparisonAList),
		ComparisonB: lenOf(p.ComparisonBList),
		SpotOnlyB:   lenOf(p.SpotOnlyList),
	})
	l.Info("push merged", "version", got.Version, "last_update", got.LastUpdated.Format(time.RFC3339),
		"reference", p.ReferenceList != nil, "comparison_a", p.ComparisonAList != nil,
		"comparison_b", p.ComparisonBList != nil, "spot_only", p.SpotOnlyList != nil,
		"stats", !p.Stats.Empty())
	return got, nil
}

// Authorize checks supplied against the configured secret in constant time.
func (in *Ingestor) Authorize(supplied string) error {
	want := strings.TrimSpace(in.Secret)
	if want == "" {
		return &AuthError{Reason: "shared secret not configured"}
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(supplied)), []byte(want)) != 1 {
		return &AuthError{Reason: "secret mismatch"}
	}
	return nil
}

func (in *Ingestor) validate(p Payload) (snapshot.Partial, error) {
	var out snapshot.Partial
	if p.ReferenceList == nil && p.ComparisonAList == nil && p.ComparisonBList == nil &&
		p.SpotOnlyList == nil && p.Stats.Empty() {
		return out, &ValidationError{Reason: "no recognised list or stats field"}
	}

	for _, f := range []struct {
		name string
		src  *[]listings.RankedEntry
		dst  **[]listings.RankedEntry
	}{
		{"reference_list", p.ReferenceList, &out.ReferenceList},
		{"comparison_a_list", p.ComparisonAList, &out.ComparisonAList},
		{"comparison_b_list", p.ComparisonBList, &out.ComparisonBList},
		{"spot_only_list", p.SpotOnlyList, &out.SpotOnlyList},
	} {
		if f.src == nil {
			continue
		}
		list, err := normalize(f.name, *f.src)
		if err != nil {
			return out, err
		}
		*f.dst = &list
	}

	if !p.Stats.Empty() {
		for name, v := range map[string]*int{
			"stats.reference_count":    p.Stats.ReferenceCount,
			"stats.comparison_a_count": p.Stats.ComparisonACount,
			"stats.comparison_b_count": p.Stats.ComparisonBCount,
			"stats.spot_only_count":    p.Stats.SpotOnlyCount,
		} {
			if v != nil && *v < 0 {
				return out, &ValidationError{Field: name, Reason: "negative count"}
			}
		}
		st := *p.Stats
		out.Stats = &st
	}

	ts := in.now()
	if p.LastUpdate != nil && strings.TrimSpace(*p.LastUpdate) != "" {
		parsed, err := ParseTimestamp(*p.LastUpdate)
		if err != nil {
			return out, &ValidationError{Field: "last_update", Reason: err.Error()}
		}
		ts = parsed
	}
	out.LastUpdated = &ts
	out.Source = snapshot.SourceWorker
	return out, nil
}

// normalize upper-cases symbols and renumbers ranks densely in the order given.
func normalize(field string, in []listings.RankedEntry) ([]listings.RankedEntry, error) {
	out := make([]listings.RankedEntry, 0, len(in))
	for i, e := range in {
		sym := listings.Canonical(e.Symbol)
		if sym == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d].symbol", field, i), Reason: "empty"}
		}
		if e.PrimaryMetric < 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d].max_position", field, i), Reason: "negative"}
		}
		e.Symbol = sym
		e.Rank = len(out) + 1
		if e.MarketCap != nil && *e.MarketCap <= 0 {
			e.MarketCap = nil
		}
		out = append(out, e)
	}
	return out, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05 UTC",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp accepts RFC3339 and the worker's "YYYY-MM-DD HH:MM:SS UTC".
// Zone-less values are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (in *Ingestor) now() time.Time {
	if in.Now != nil {
		return in.Now().UTC()
	}
	return time.Now().UTC()
}

func (in *Ingestor) finish(ctx context.Context, l *slog.Logger, id uuid.UUID, result string, err error, c listings.Counts) {
	if in.Metrics != nil {
		in.Metrics.Push(result)
	}
	e := journal.Entry{
		ID: id, Kind: journal.KindPush, OK: err == nil,
		ReferenceCount: c.Reference, ComparisonACount: c.ComparisonA, ComparisonBCount: c.ComparisonB,
		At: in.now(),
	}
	if err != nil {
		e.Error = err.Error()
		l.Warn("push rejected", "result", result, "err", err)
	}
	if in.Journal != nil {
		if jerr := in.Journal.Record(ctx, e); jerr != nil {
			l.Warn("journal write failed", "err", jerr)
		}
	}
}

func lenOf(p *[]listings.RankedEntry) int {
	if p == nil {
		return 0
	}
	return len(*p)
}
