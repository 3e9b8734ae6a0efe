package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/trajectory"
)

// Record is one exported dataset example.
type Record struct {
	Inputs           Inputs           `json:"inputs" yaml:"inputs"`
	ReferenceOutputs ReferenceOutputs `json:"reference_outputs" yaml:"reference_outputs"`
	Metadata         Metadata         `json:"metadata" yaml:"metadata"`
}

// Inputs is what the agent under test sees.
type Inputs struct {
	Query string `json:"query" yaml:"query"`
}

// ReferenceOutputs is what evaluators compare against.
type ReferenceOutputs struct {
	ExpectedAnswers         map[string]any        `json:"expected_answers,omitempty" yaml:"expected_answers,omitempty"`
	ExpectedTrajectory      trajectory.Trajectory `json:"expected_trajectory" yaml:"expected_trajectory"`
	ExpectedTrajectoryCount int                   `json:"expected_trajectory_count" yaml:"expected_trajectory_count"`
	TrajectoryMode          trajectory.MatchMode  `json:"trajectory_mode" yaml:"trajectory_mode"`
	PrimaryDomain           oracle.Domain         `json:"primary_domain,omitempty" yaml:"primary_domain,omitempty"`
	SecondaryDomain         oracle.Domain         `json:"secondary_domain,omitempty" yaml:"secondary_domain,omitempty"`
	RecallQuestions         []string              `json:"recall_questions,omitempty" yaml:"recall_questions,omitempty"`
	Criteria                *ResponseCriteria     `json:"response_criteria,omitempty" yaml:"response_criteria,omitempty"`
	Poison                  *Poison               `json:"poison,omitempty" yaml:"poison,omitempty"`
	Counts                  Counts                `json:"counts" yaml:"counts"`
	// Deliverables maps deliverable keys to answer keys (multi-agent tasks).
	Deliverables map[string]string `json:"deliverables,omitempty" yaml:"deliverables,omitempty"`
}

// Metadata identifies the task a record came from.
type Metadata struct {
	TaskID   int    `json:"task_id" yaml:"task_id"`
	Name     string `json:"name" yaml:"name"`
	Scenario string `json:"scenario" yaml:"scenario"`
	Dataset  string `json:"dataset,omitempty" yaml:"dataset,omitempty"`
}

// ToRecord exports t.
func (t *Task) ToRecord(dataset string) (Record, error) {
	answers, err := t.ExpectedAnswers()
	if err != nil {
		return Record{}, err
	}
	if len(answers) == 0 {
		answers = nil
	}
	return Record{
		Inputs: Inputs{Query: t.Query()},
		ReferenceOutputs: ReferenceOutputs{
			ExpectedAnswers:         answers,
			ExpectedTrajectory:      t.ExpectedTrajectory,
			ExpectedTrajectoryCount: len(t.ExpectedTrajectory),
			TrajectoryMode:          t.TrajectoryMode,
			PrimaryDomain:           t.PrimaryDomain,
			SecondaryDomain:         t.SecondaryDomain,
			RecallQuestions:         t.RecallQuestions(),
			Criteria:                t.Criteria,
			Poison:                  t.Poison,
			Counts:                  t.Counts,
			Deliverables:            t.DeliverableAnswers(),
		},
		Metadata: Metadata{
			TaskID:   t.ID,
			Name:     t.Name,
			Scenario: string(t.Scenario),
			Dataset:  dataset,
		},
	}, nil
}

// Records exports every task of the dataset.
func (d *Dataset) Records() ([]Record, error) {
	out := make([]Record, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		r, err := t.ToRecord(d.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Format is a dataset file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension; anything other than
// .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// EncodeRecords writes records in the given format.
func EncodeRecords(w io.Writer, records []Record, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode dataset: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode dataset: %w", err)
		}
		return nil
	}
}

// DecodeRecords reads records in the given format.
func DecodeRecords(r io.Reader, format Format) ([]Record, error) {
	var records []Record
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&records)
	default:
		err = json.NewDecoder(r).Decode(&records)
	}
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return records, nil
}

// WriteDataset exports d to path, choosing the format by extension.
func WriteDataset(path string, d *Dataset) error {
	records, err := d.Records()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return EncodeRecords(f, records, FormatFromPath(path))
}

// ReadDataset loads records exported by WriteDataset.
func ReadDataset(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeRecords(f, FormatFromPath(path))
}
