// Package repository persists vote records and the other JSON snapshots.
//
// VoteStore owns the votes.json mapping for one run. Records are merged, never
// replaced wholesale, so hand-curated fields survive re-import; records are
// never deleted.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"dario.cat/mergo"

	"github.com/okian/rollcall/internal/domain/vote"
	"github.com/okian/rollcall/pkg/metrics"
)

// Store provides read/write access to tracked vote records.
type Store interface {
	// Upsert stores fresh under key, merging into any existing record.
	Upsert(ctx context.Context, key string, fresh vote.VoteRecord) error
	// RecomputeOffenders replaces a record's offenders from the roster votes.
	// Returns ErrNotFound if the key is unknown.
	RecomputeOffenders(ctx context.Context, key string, votes []vote.MemberVoteEntry, rule vote.OffenderRule) error
	// Get returns a copy of the record under key.
	Get(ctx context.Context, key string) (vote.VoteRecord, bool)
	// Records returns a snapshot of the whole mapping.
	Records() map[string]vote.VoteRecord
	// Save persists the mapping.
	Save(ctx context.Context) error
}

// VoteStore is the file-backed Store for votes.json.
type VoteStore struct {
	mu      sync.RWMutex
	path    string
	records map[string]vote.VoteRecord
	now     func() time.Time
}

var _ Store = (*VoteStore)(nil)

// Open loads the mapping at path. A missing file yields an empty store; an
// unreadable or malformed one fails with ErrLoad.
func Open(_ context.Context, path string, opts ...Option) (*VoteStore, error) {
	s := &VoteStore{
		path:    path,
		records: make(map[string]vote.VoteRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	var loaded map[string]vote.VoteRecord
	switch err := ReadJSON(path, &loaded); {
	case err == nil:
		if loaded != nil {
			s.records = loaded
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	metrics.UpdateVoteRecords(len(s.records))
	return s, nil
}

// Path returns the file the store saves to.
func (s *VoteStore) Path() string { return s.path }

// Upsert stores fresh for a new key. For an existing key non-empty fields of
// fresh win and the rest are preserved; a non-nil Offenders (even empty) and
// a non-nil UpdatedAt always win.
func (s *VoteStore) Upsert(_ context.Context, key string, fresh vote.VoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[key]
	if !ok {
		s.records[key] = detach(fresh)
		metrics.RecordUpsert()
		return nil
	}

	// Pointers and offenders are assigned explicitly so mergo never writes
	// through a pointer shared with the caller.
	src := fresh
	src.RC, src.UpdatedAt, src.Offenders = nil, nil, nil
	merged := existing
	if err := mergo.Merge(&merged, src, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge %s: %w", key, err)
	}
	fresh = detach(fresh)
	if fresh.RC != nil {
		merged.RC = fresh.RC
	}
	if fresh.Offenders != nil {
		merged.Offenders = fresh.Offenders
	}
	if fresh.UpdatedAt != nil {
		merged.UpdatedAt = fresh.UpdatedAt
	}

	s.records[key] = merged
	metrics.RecordUpsert()
	return nil
}

// detach copies the pointer and slice fields of rec.
func detach(rec vote.VoteRecord) vote.VoteRecord {
	if rec.RC != nil {
		rc := *rec.RC
		rec.RC = &rc
	}
	if rec.UpdatedAt != nil {
		at := *rec.UpdatedAt
		rec.UpdatedAt = &at
	}
	if rec.Offenders != nil {
		rec.Offenders = append(make([]vote.OffenderEntry, 0, len(rec.Offenders)), rec.Offenders...)
	}
	if rec.OffendersVote != nil {
		rec.OffendersVote = append(vote.RuleSpec(nil), rec.OffendersVote...)
	}
	return rec
}

// RecomputeOffenders sets the offenders of key to every entry the rule
// classifies as offending and stamps updatedAt.
func (s *VoteStore) RecomputeOffenders(_ context.Context, key string, votes []vote.MemberVoteEntry, rule vote.OffenderRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	s.records[key] = s.recompute(rec, votes, rule)
	return nil
}

// RecomputeAll recomputes every tracked record that has fetched votes, using
// each record's own rule. Hand-curated records without rc are skipped and
// tracked records missing from votesByKey are left unchanged. It returns the
// number of records recomputed.
func (s *VoteStore) RecomputeAll(_ context.Context, votesByKey map[string][]vote.MemberVoteEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, rec := range s.records {
		if rec.RC == nil {
			metrics.RecordSkipped()
			continue
		}
		votes, ok := votesByKey[key]
		if !ok {
			continue
		}
		s.records[key] = s.recompute(rec, votes, rec.Rule())
		n++
	}
	return n
}

func (s *VoteStore) recompute(rec vote.VoteRecord, votes []vote.MemberVoteEntry, rule vote.OffenderRule) vote.VoteRecord {
	offenders := make([]vote.OffenderEntry, 0)
	for _, v := range votes {
		if rule.IsOffending(v.Raw) {
			offenders = append(offenders, v.Offender())
		}
	}
	at := s.now().UTC()
	rec.Offenders = offenders
	rec.UpdatedAt = &at
	metrics.RecordOffenders(len(offenders))
	return rec
}

// Get returns a copy of the record under key.
func (s *VoteStore) Get(_ context.Context, key string) (vote.VoteRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Has reports whether key is present.
func (s *VoteStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Keys returns every key in sorted order.
func (s *VoteStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tracked returns the sorted keys of records that point at a roll call.
func (s *VoteStore) Tracked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k, rec := range s.records {
		if rec.RC != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of records.
func (s *VoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a shallow copy of the mapping.
func (s *VoteStore) Records() map[string]vote.VoteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]vote.VoteRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Save writes the mapping to the store's path atomically.
func (s *VoteStore) Save(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := WriteJSON(s.path, s.records); err != nil {
		return err
	}
	metrics.UpdateVoteRecords(len(s.records))
	return nil
}
