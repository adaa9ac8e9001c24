package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ModelRecord describes one registered artifact version of a domain.
type ModelRecord struct {
	UQType      string  `json:"uq_type"`
	File        string  `json:"file"`
	UQAggregate string  `json:"uq_aggregate,omitempty"`
	Threshold   float64 `json:"threshold"`
	Version     int     `json:"version"`
	DBLabel     string  `json:"db_label,omitempty"`
}

// storeIndex manages the on-disk registry of store entries, keyed first by
// entry kind (models, candidates, data) and then by domain name.
type storeIndex struct {
	indexPath string
	mu        sync.RWMutex
	entries   map[string]map[string][]ModelRecord
}

// newStoreIndex creates a new store index
func newStoreIndex(indexPath string) *storeIndex {
	return &storeIndex{
		indexPath: indexPath,
		entries:   make(map[string]map[string][]ModelRecord),
	}
}

// Load loads the index from disk
func (si *storeIndex) Load() error {
	si.mu.Lock()
	defer si.mu.Unlock()

	data, err := os.ReadFile(si.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Index doesn't exist yet, start fresh
		}
		return fmt.Errorf("failed to read index file: %w", err)
	}

	if err := json.Unmarshal(data, &si.entries); err != nil {
		return fmt.Errorf("failed to unmarshal index: %w", err)
	}

	return nil
}

// Save saves the index to disk
func (si *storeIndex) Save() error {
	si.mu.RLock()
	defer si.mu.RUnlock()

	data, err := json.MarshalIndent(si.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	if err := os.WriteFile(si.indexPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}

	return nil
}

// Add registers a record under an entry kind and domain, assigning the next
// version number.
func (si *storeIndex) Add(entry, domain string, rec ModelRecord) ModelRecord {
	si.mu.Lock()
	defer si.mu.Unlock()

	domains, exists := si.entries[entry]
	if !exists {
		domains = make(map[string][]ModelRecord)
		si.entries[entry] = domains
	}

	rec.Version = len(domains[domain]) + 1
	domains[domain] = append(domains[domain], rec)
	return rec
}

// Lookup returns the records registered for a domain under an entry kind.
// Copies are returned so callers cannot mutate the index.
func (si *storeIndex) Lookup(entry, domain string) []ModelRecord {
	si.mu.RLock()
	defer si.mu.RUnlock()

	records := si.entries[entry][domain]
	out := make([]ModelRecord, len(records))
	copy(out, records)
	return out
}

// Domains lists the domain names registered under an entry kind.
func (si *storeIndex) Domains(entry string) []string {
	si.mu.RLock()
	defer si.mu.RUnlock()

	domains := si.entries[entry]
	out := make([]string, 0, len(domains))
	for name := range domains {
		out = append(out, name)
	}
	return out
}
