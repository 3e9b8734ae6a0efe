package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/tools"
)

// selection is what the run flags pick out of the catalog.
type selection struct {
	dataset    string
	datasetSet bool
	taskID     int
	questions  string
	scenario   string
	from       string
}

// plan is the tasks one run evaluates and the records scored against them.
type plan struct {
	dataset string
	tasks   map[int]*tasks.Task
	records []tasks.Record
}

func (p *plan) task(id int) (*tasks.Task, bool) {
	t, ok := p.tasks[id]
	return t, ok
}

func buildPlan(catalog *tasks.Catalog, sel selection) (*plan, error) {
	if sel.from != "" {
		return planFromFile(catalog, sel.from)
	}

	name := sel.dataset
	var selected []*tasks.Task
	if sel.taskID != 0 {
		t, ok := catalog.Task(sel.taskID)
		if !ok {
			return nil, missingf("unknown task %d", sel.taskID)
		}
		if sel.datasetSet {
			ds, err := catalog.Dataset(name)
			if err != nil {
				return nil, missingf("%w", err)
			}
			if !containsTask(ds.Tasks, t.ID) {
				return nil, missingf("task %d is not part of dataset %s", t.ID, name)
			}
		} else {
			name = datasetOf(catalog, t.ID)
		}
		selected = []*tasks.Task{t}
	} else {
		ds, err := catalog.Dataset(name)
		if err != nil {
			return nil, missingf("%w", err)
		}
		selected = ds.Tasks
	}

	var numbers []int
	if sel.questions != "" {
		var err error
		if numbers, err = tasks.ParseQuestionSet(sel.questions); err != nil {
			return nil, err
		}
	}
	var scenario tools.Scenario
	if sel.scenario != "" {
		var err error
		if scenario, err = tools.ParseScenario(sel.scenario); err != nil {
			return nil, err
		}
	}

	p := &plan{dataset: name, tasks: make(map[int]*tasks.Task, len(selected))}
	for _, t := range selected {
		var err error
		if numbers != nil {
			switch {
			case t.N() > 0:
				if t, err = t.Subset(numbers); err != nil {
					return nil, err
				}
			case sel.taskID != 0:
				return nil, fmt.Errorf("task %d has no numbered questions to select", t.ID)
			}
		}
		if t, err = t.ForScenario(scenario); err != nil {
			return nil, err
		}
		rec, err := t.ToRecord(name)
		if err != nil {
			return nil, fmt.Errorf("build record of task %d: %w", t.ID, err)
		}
		p.tasks[t.ID] = t
		p.records = append(p.records, rec)
	}
	return p, nil
}

// planFromFile evaluates records exported earlier. Agents are still built
// from the catalog task each record names.
func planFromFile(catalog *tasks.Catalog, path string) (*plan, error) {
	recs, err := tasks.ReadDataset(path)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s has no records", path)
	}
	p := &plan{
		dataset: recs[0].Metadata.Dataset,
		tasks:   make(map[int]*tasks.Task, len(recs)),
		records: recs,
	}
	if p.dataset == "" {
		p.dataset = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for _, rec := range recs {
		t, ok := catalog.Task(rec.Metadata.TaskID)
		if !ok {
			return nil, missingf("record %q refers to unknown task %d", rec.Metadata.Name, rec.Metadata.TaskID)
		}
		if rec.Metadata.Scenario != "" && rec.Metadata.Scenario != string(t.Scenario) {
			sc, err := tools.ParseScenario(rec.Metadata.Scenario)
			if err != nil {
				return nil, err
			}
			if t, err = t.ForScenario(sc); err != nil {
				return nil, err
			}
		}
		p.tasks[t.ID] = t
	}
	return p, nil
}

func containsTask(ts []*tasks.Task, id int) bool {
	for _, t := range ts {
		if t.ID == id {
			return true
		}
	}
	return false
}

// datasetOf names the first dataset holding task id.
func datasetOf(catalog *tasks.Catalog, id int) string {
	for _, name := range catalog.DatasetNames() {
		ds, err := catalog.Dataset(name)
		if err != nil {
			continue
		}
		if containsTask(ds.Tasks, id) {
			return name
		}
	}
	return ""
}
