// Package store persists finished runs: a metadata document plus a restart
// snapshot of final positions and velocities, one directory per run.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avolkov/drudemd/internal/engine"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata summarizes one completed run.
type RunMetadata struct {
	ID            string             `json:"id"`
	Preset        string             `json:"preset"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Temperature   float64            `json:"temperature"`
	Blocks        int                `json:"blocks"`
	StepsPerBlock int                `json:"steps_per_block"`
	Steps         int64              `json:"steps"`
	Particles     int                `json:"particles"`
	Temperatures  map[string]float64 `json:"temperatures"`
}

// Save writes metadata and the restart snapshot, returning the run id.
func (s *Store) Save(meta RunMetadata, st engine.State) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Preset, time.Now().Unix())
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeRestart(filepath.Join(runDir, "restart.csv"), st); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeRestart(path string, st engine.State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"x", "y", "z", "vx", "vy", "vz"}); err != nil {
		return err
	}
	for i := range st.Positions {
		row := make([]string, 0, 6)
		for k := 0; k < 3; k++ {
			row = append(row, strconv.FormatFloat(st.Positions[i][k], 'g', -1, 64))
		}
		for k := 0; k < 3; k++ {
			row = append(row, strconv.FormatFloat(st.Velocities[i][k], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadRestart reads a saved snapshot back into positions and velocities.
func (s *Store) LoadRestart(runID string) ([][3]float64, [][3]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "restart.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 1 {
		return nil, nil, fmt.Errorf("restart file for %s is empty", runID)
	}

	pos := make([][3]float64, 0, len(records)-1)
	vel := make([][3]float64, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 6 {
			return nil, nil, fmt.Errorf("restart row has %d fields, expected 6", len(rec))
		}
		var p, v [3]float64
		for k := 0; k < 3; k++ {
			if p[k], err = strconv.ParseFloat(rec[k], 64); err != nil {
				return nil, nil, err
			}
			if v[k], err = strconv.ParseFloat(rec[k+3], 64); err != nil {
				return nil, nil, err
			}
		}
		pos = append(pos, p)
		vel = append(vel, v)
	}
	return pos, vel, nil
}
