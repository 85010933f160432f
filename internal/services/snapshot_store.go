package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"geometry-relay/internal/models"
)

type snapshotEntry struct {
	snapshot *models.GeometrySnapshot
	etag     string
}

func (e *snapshotEntry) summary() models.ProjectSummary {
	return models.ProjectSummary{
		ProjectName:    e.snapshot.ProjectName,
		TimestampUtc:   e.snapshot.TimestampUtc,
		PrimitiveCount: len(e.snapshot.Primitives),
		ETag:           e.etag,
	}
}

// FetchResult is the outcome of a conditional snapshot fetch.
type FetchResult struct {
	Snapshot    *models.GeometrySnapshot
	ETag        string
	NotModified bool
}

// SnapshotStore holds the most recent snapshot per project. Each project key is replaced
// atomically; there is no store-wide lock.
type SnapshotStore struct {
	entries sync.Map // map[string]*snapshotEntry
	now     func() time.Time
}

// NewSnapshotStore creates an empty store stamping ingests with the wall clock.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{now: time.Now}
}

// Ingest replaces the snapshot stored for the snapshot's project. The client-supplied
// timestamp is ignored; the store stamps its own, strictly increasing per project.
func (s *SnapshotStore) Ingest(snapshot *models.GeometrySnapshot) (models.ProjectSummary, error) {
	if snapshot == nil || strings.TrimSpace(snapshot.ProjectName) == "" {
		return models.ProjectSummary{}, ErrProjectRequired
	}
	key := models.ProjectKey(snapshot.ProjectName)
	stored := snapshot.Clone()
	if stored.Primitives == nil {
		stored.Primitives = []models.GeometryPrimitive{}
	}
	if stored.SelectedElementIDs == nil {
		stored.SelectedElementIDs = []string{}
	}

	for {
		ts := s.now().UTC()
		prev, loaded := s.entries.Load(key)
		if loaded {
			if last := prev.(*snapshotEntry).snapshot.TimestampUtc; !ts.After(last) {
				ts = last.Add(time.Nanosecond)
			}
		}
		stored.TimestampUtc = ts
		entry := &snapshotEntry{snapshot: stored, etag: SnapshotFingerprint(stored)}

		if loaded {
			if s.entries.CompareAndSwap(key, prev, entry) {
				return entry.summary(), nil
			}
			continue
		}
		if _, exists := s.entries.LoadOrStore(key, entry); !exists {
			return entry.summary(), nil
		}
	}
}

// FetchLatest returns the snapshot for projectName, or the most recently ingested snapshot
// across all projects when projectName is empty.
func (s *SnapshotStore) FetchLatest(projectName string) (*models.GeometrySnapshot, string, error) {
	entry, err := s.lookup(projectName)
	if err != nil {
		return nil, "", err
	}
	return entry.snapshot.Clone(), entry.etag, nil
}

// FetchIfNoneMatch behaves like FetchLatest but reports NotModified, without a payload,
// when ifNoneMatch still matches the current fingerprint.
func (s *SnapshotStore) FetchIfNoneMatch(projectName, ifNoneMatch string) (FetchResult, error) {
	entry, err := s.lookup(projectName)
	if err != nil {
		return FetchResult{}, err
	}
	if MatchesIfNoneMatch(ifNoneMatch, entry.etag) {
		return FetchResult{ETag: entry.etag, NotModified: true}, nil
	}
	return FetchResult{Snapshot: entry.snapshot.Clone(), ETag: entry.etag}, nil
}

// Projects lists a summary of every stored snapshot ordered by project key.
func (s *SnapshotStore) Projects() []models.ProjectSummary {
	var out []models.ProjectSummary
	s.entries.Range(func(_, value any) bool {
		out = append(out, value.(*snapshotEntry).summary())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return models.ProjectKey(out[i].ProjectName) < models.ProjectKey(out[j].ProjectName)
	})
	return out
}

func (s *SnapshotStore) lookup(projectName string) (*snapshotEntry, error) {
	if strings.TrimSpace(projectName) != "" {
		value, ok := s.entries.Load(models.ProjectKey(projectName))
		if !ok {
			return nil, ErrSnapshotNotFound
		}
		return value.(*snapshotEntry), nil
	}

	var (
		newest    *snapshotEntry
		newestKey string
	)
	s.entries.Range(func(key, value any) bool {
		entry := value.(*snapshotEntry)
		k := key.(string)
		ts := entry.snapshot.TimestampUtc
		if newest == nil || ts.After(newest.snapshot.TimestampUtc) ||
			(ts.Equal(newest.snapshot.TimestampUtc) && k < newestKey) {
			newest, newestKey = entry, k
		}
		return true
	})
	if newest == nil {
		return nil, ErrSnapshotNotFound
	}
	return newest, nil
}
