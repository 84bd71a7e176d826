// Package store keeps persisted samples on disk, one file per sample under
// a directory per writer:
//
//	<root>/<writer id>/<sample id>.hsample
//
// Files are replaced atomically so readers never observe a partial sample.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/inkstone/handsynth/encoding/sample"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/log"
)

// Store is a sample directory.
type Store struct {
	root string
}

// DefaultDir returns the platform data directory for samples, falling back
// to the home directory.
func DefaultDir() (string, error) {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "handsynth", "writers"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.E(errs.Configuration, "store.DefaultDir", err)
	}
	return filepath.Join(home, ".handsynth", "writers"), nil
}

// Open returns the store rooted at root, creating the directory if needed.
func Open(root string) (*Store, error) {
	if root == "" {
		return nil, errs.Errorf(errs.Configuration, "store.Open", "empty store directory")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, errs.E(errs.Data, "store.Open", errors.Wrapf(err, "can't create %s", root))
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

func checkID(kind, id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errs.Errorf(errs.Validation, "store", "invalid %s id %q", kind, id)
	}
	return nil
}

// Path returns the file of a sample.
func (s *Store) Path(writerID, sampleID string) string {
	return filepath.Join(s.root, writerID, sampleID+sample.Ext)
}

// Save writes smp, replacing any previous version atomically.
func (s *Store) Save(smp *hierarchy.Sample) error {
	const op = "store.Save"

	if err := checkID("writer", smp.WriterID); err != nil {
		return err
	}
	if err := checkID("sample", smp.SampleID); err != nil {
		return err
	}
	if err := smp.Validate(); err != nil {
		return err
	}

	data, err := sample.Marshal(smp)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.root, smp.WriterID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errs.E(errs.Data, op, errors.Wrap(err, "can't create writer dir"))
	}

	if err := writeAtomic(s.Path(smp.WriterID, smp.SampleID), data); err != nil {
		return errs.E(errs.Data, op, err)
	}
	s.invalidateIndex()

	log.Trace.Printf("saved %s (%d bytes)", s.Path(smp.WriterID, smp.SampleID), len(data))
	return nil
}

// writeAtomic writes data to a temp file next to path, syncs it and renames
// it over path.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "can't create temp file")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(err, "can't write temp file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "can't sync temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "can't close temp file")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "can't replace %s", path)
	}
	return nil
}

// Load reads one sample.
func (s *Store) Load(writerID, sampleID string) (*hierarchy.Sample, error) {
	const op = "store.Load"

	if err := checkID("writer", writerID); err != nil {
		return nil, err
	}
	if err := checkID("sample", sampleID); err != nil {
		return nil, err
	}

	path := s.Path(writerID, sampleID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.E(errs.Data, op, errors.Wrapf(err, "sample %s/%s", writerID, sampleID))
	}

	smp, err := sample.Unmarshal(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	if smp.WriterID != writerID || smp.SampleID != sampleID {
		log.Warning.Printf("%s holds sample %s/%s", path, smp.WriterID, smp.SampleID)
	}
	return smp, nil
}

// Delete removes one sample.
func (s *Store) Delete(writerID, sampleID string) error {
	if err := checkID("writer", writerID); err != nil {
		return err
	}
	if err := checkID("sample", sampleID); err != nil {
		return err
	}
	if err := os.Remove(s.Path(writerID, sampleID)); err != nil {
		return errs.E(errs.Data, "store.Delete", errors.Wrapf(err, "sample %s/%s", writerID, sampleID))
	}
	s.invalidateIndex()
	return nil
}

// Writers lists the writer ids that have a directory in the store.
func (s *Store) Writers() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errs.E(errs.Data, "store.Writers", errors.Wrap(err, "can't read store"))
	}

	var writers []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			writers = append(writers, e.Name())
		}
	}
	sortIDs(writers)
	return writers, nil
}

// List returns the sample ids of a writer.
func (s *Store) List(writerID string) ([]string, error) {
	if err := checkID("writer", writerID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, writerID))
	if err != nil {
		return nil, errs.E(errs.Data, "store.List", errors.Wrapf(err, "writer %s", writerID))
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != sample.Ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, sample.Ext))
	}
	sortIDs(ids)
	return ids, nil
}

// LoadWriter reads every sample of a writer. A writer without samples is a
// data error.
func (s *Store) LoadWriter(writerID string) ([]*hierarchy.Sample, error) {
	ids, err := s.List(writerID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errs.Errorf(errs.Data, "store.LoadWriter", "writer %s has no samples", writerID)
	}

	samples := make([]*hierarchy.Sample, 0, len(ids))
	for _, id := range ids {
		smp, err := s.Load(writerID, id)
		if err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

// sortIDs orders numeric ids by value and puts them before other ids.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
}
