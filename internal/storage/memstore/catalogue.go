package memstore

import (
	"context"
	"sort"

	"github.com/queue-broker-service/internal/domain"
)

type catalogueRecord struct {
	project  string
	queue    string
	location string
	metadata map[string]any
}

func (c *catalogueRecord) toDomain() domain.CatalogueEntry {
	return domain.CatalogueEntry{
		Project:  c.project,
		Queue:    c.queue,
		Location: c.location,
		Metadata: copyMetadata(c.metadata),
	}
}

type catalogueStore Store

func (cs *catalogueStore) s() *Store { return (*Store)(cs) }

func (cs *catalogueStore) Insert(ctx context.Context, project, queue, location string, metadata map[string]any) error {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.catalogue[project]
	if !ok {
		bucket = make(map[string]*catalogueRecord)
		s.catalogue[project] = bucket
	}
	if _, exists := bucket[queue]; exists {
		return domain.ErrEntryAlreadyExists
	}
	bucket[queue] = &catalogueRecord{
		project:  project,
		queue:    queue,
		location: location,
		metadata: copyMetadata(metadata),
	}
	return nil
}

func (cs *catalogueStore) Get(ctx context.Context, project, queue string) (*domain.CatalogueEntry, error) {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := cs.lookup(project, queue)
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	d := rec.toDomain()
	return &d, nil
}

func (cs *catalogueStore) lookup(project, queue string) (*catalogueRecord, bool) {
	s := cs.s()
	bucket, ok := s.catalogue[project]
	if !ok {
		return nil, false
	}
	rec, ok := bucket[queue]
	return rec, ok
}

func (cs *catalogueStore) List(ctx context.Context, project string, includeMetadata, includeLocation bool) ([]domain.CatalogueEntry, error) {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.catalogue[project]
	names := make([]string, 0, len(bucket))
	for name := range bucket {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]domain.CatalogueEntry, 0, len(names))
	for _, name := range names {
		rec := bucket[name]
		entry := domain.CatalogueEntry{Project: rec.project, Queue: rec.queue}
		if includeLocation {
			entry.Location = rec.location
		}
		if includeMetadata {
			entry.Metadata = copyMetadata(rec.metadata)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (cs *catalogueStore) Delete(ctx context.Context, project, queue string) error {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	if bucket, ok := s.catalogue[project]; ok {
		delete(bucket, queue)
	}
	return nil
}

func (cs *catalogueStore) Location(ctx context.Context, project, queue string) (string, error) {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := cs.lookup(project, queue)
	if !ok {
		return "", domain.ErrEntryNotFound
	}
	return rec.location, nil
}

func (cs *catalogueStore) UpdateMetadata(ctx context.Context, project, queue string, metadata map[string]any) error {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := cs.lookup(project, queue)
	if !ok {
		return domain.ErrEntryNotFound
	}
	rec.metadata = copyMetadata(metadata)
	return nil
}

func (cs *catalogueStore) Move(ctx context.Context, project, queue, newLocation string) error {
	s := cs.s()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := cs.lookup(project, queue)
	if !ok {
		return domain.ErrEntryNotFound
	}
	rec.location = newLocation
	return nil
}
