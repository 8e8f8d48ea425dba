package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	tuiStateFileName = "tui_state.json"
	maxRecentTexts   = 10
)

// TUIState is best-effort UI state restored on relaunch. Missing or corrupt
// files load as the default state.
type TUIState struct {
	Version int `json:"version"`

	TextID string `json:"textId,omitempty"`
	// FirstVisible is the code point offset painted at the top of the viewport, per text.
	FirstVisible map[string]int `json:"firstVisible,omitempty"`

	// PickerMode is one of: catalog|structural
	PickerMode string `json:"pickerMode,omitempty"`
	Taxonomy   string `json:"taxonomy,omitempty"`

	// RecentTextIDs is newest first.
	RecentTextIDs []string `json:"recentTextIds,omitempty"`
}

// Visit records textID as the current and most recent text.
func (st *TUIState) Visit(textID string) {
	textID = strings.TrimSpace(textID)
	if textID == "" {
		return
	}
	st.TextID = textID
	out := []string{textID}
	for _, id := range st.RecentTextIDs {
		if id != textID && len(out) < maxRecentTexts {
			out = append(out, id)
		}
	}
	st.RecentTextIDs = out
}

func (st *TUIState) SetFirstVisible(textID string, offset int) {
	if st.FirstVisible == nil {
		st.FirstVisible = map[string]int{}
	}
	st.FirstVisible[textID] = offset
}

func (s Store) tuiStatePath() string {
	return filepath.Join(s.Dir, tuiStateFileName)
}

func (s Store) LoadTUIState() (*TUIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &TUIState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.tuiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveTUIState(st *TUIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, tuiStateFileName+".*.tmp", s.tuiStatePath(), b, 0o644)
}
