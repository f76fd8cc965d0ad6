package download

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// BatchFile is a batch described on disk, in JSON or YAML.
//
// Example (YAML):
//
//	group_label: Abbey Road
//	tracks:
//	  - id: "1"
//	    display_name: Come Together
//	    locator: https://www.youtube.com/watch?v=45cYwDMibGo
//	  - id: "2"
//	    display_name: Something
//	    locator: https://www.youtube.com/watch?v=UelDrZ1aFeY
type BatchFile struct {
	GroupLabel string               `json:"groupLabel" yaml:"group_label"`
	Tracks     []model.TrackRequest `json:"tracks" yaml:"tracks"`
}

// Requests returns the tracks with the file's group label applied to
// those that carry none.
func (b *BatchFile) Requests() []model.TrackRequest {
	reqs := make([]model.TrackRequest, len(b.Tracks))
	for i, t := range b.Tracks {
		if t.GroupLabel == "" {
			t.GroupLabel = b.GroupLabel
		}
		reqs[i] = t
	}
	return reqs
}

// LoadBatchFile reads a batch file. .yaml and .yml files are parsed as
// YAML, anything else as JSON.
func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	var b BatchFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &b)
	default:
		err = json.Unmarshal(data, &b)
	}
	if err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	return &b, nil
}
