package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/inkstone/handsynth/encoding/sample"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/log"
)

const (
	indexFile    = ".index.json"
	indexVersion = 1
)

// Entry summarizes one stored sample.
type Entry struct {
	WriterID    string  `json:"writer_id"`
	SampleID    string  `json:"sample_id"`
	Text        string  `json:"text"`
	Points      int     `json:"points"`
	Words       int     `json:"words"`
	Degenerates int     `json:"degenerates"`
	Divider     float64 `json:"divider"`
	Hash        string  `json:"hash"`
}

// NewEntry summarizes smp. data is its encoded form.
func NewEntry(smp *hierarchy.Sample, data []byte) Entry {
	sum := sha256.Sum256(data)
	return Entry{
		WriterID:    smp.WriterID,
		SampleID:    smp.SampleID,
		Text:        smp.Text,
		Points:      smp.Points(),
		Words:       len(smp.Words),
		Degenerates: len(smp.Degenerates()),
		Divider:     smp.Divider,
		Hash:        hex.EncodeToString(sum[:]),
	}
}

// Index lists every sample of the store.
type Index struct {
	IndexVersion int     `json:"index_version"`
	Hash         string  `json:"hash"`
	Entries      []Entry `json:"entries"`
}

// HashEntries combines the entry hashes in (writer, sample) order.
func HashEntries(entries []Entry) (string, error) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].WriterID != sorted[j].WriterID {
			return sorted[i].WriterID < sorted[j].WriterID
		}
		return sorted[i].SampleID < sorted[j].SampleID
	})

	hasher := sha256.New()
	for _, e := range sorted {
		bh, err := hex.DecodeString(e.Hash)
		if err != nil {
			return "", err
		}
		hasher.Write(bh)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Writer returns the entries of one writer.
func (idx *Index) Writer(writerID string) []Entry {
	var out []Entry
	for _, e := range idx.Entries {
		if e.WriterID == writerID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, indexFile)
}

func (s *Store) invalidateIndex() {
	if err := os.Remove(s.indexPath()); err != nil && !os.IsNotExist(err) {
		log.Warning.Printf("can't drop index: %v", err)
	}
}

// Index returns the cached index, rebuilding it when it is missing,
// corrupt or of another version.
func (s *Store) Index() (*Index, error) {
	if b, err := os.ReadFile(s.indexPath()); err == nil {
		idx := &Index{}
		switch err := json.Unmarshal(b, idx); {
		case err != nil:
			log.Error.Println("index corrupt, rebuilding")
		case idx.IndexVersion != indexVersion:
			log.Info.Println("wrong index version, rebuilding")
		default:
			return idx, nil
		}
	}
	return s.Reindex()
}

// Reindex scans every sample and writes a fresh index.
func (s *Store) Reindex() (*Index, error) {
	writers, err := s.Writers()
	if err != nil {
		return nil, err
	}

	idx := &Index{IndexVersion: indexVersion, Entries: []Entry{}}
	for _, w := range writers {
		ids, err := s.List(w)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			data, err := os.ReadFile(s.Path(w, id))
			if err != nil {
				log.Warning.Printf("skipping %s/%s: %v", w, id, err)
				continue
			}
			smp, err := sample.Unmarshal(data)
			if err != nil {
				log.Warning.Printf("skipping %s/%s: %v", w, id, err)
				continue
			}
			idx.Entries = append(idx.Entries, NewEntry(smp, data))
		}
	}

	if idx.Hash, err = HashEntries(idx.Entries); err != nil {
		return nil, err
	}

	b, err := json.MarshalIndent(idx, "", " ")
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(s.indexPath(), b); err != nil {
		log.Warning.Printf("can't write index: %v", err)
	}
	log.Trace.Printf("indexed %d samples", len(idx.Entries))
	return idx, nil
}
