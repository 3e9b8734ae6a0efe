package oracle

import "fmt"

// Query is one answerable question: either a per-domain scalar (Metric set,
// one domain) or a cross-domain aggregate (Operation set).
type Query struct {
	Metric    Metric    `json:"metric,omitempty" yaml:"metric,omitempty"`
	Operation Operation `json:"operation,omitempty" yaml:"operation,omitempty"`
	Domains   []Domain  `json:"domains" yaml:"domains"`
	Params    Params    `json:"params,omitempty" yaml:"params,omitempty"`
}

// IsAggregate reports whether q is a cross-domain operation.
func (q Query) IsAggregate() bool {
	return q.Operation != ""
}

// Validate checks the shape of q without evaluating it.
func (q Query) Validate() error {
	switch {
	case q.Metric == "" && q.Operation == "":
		return fmt.Errorf("query needs a metric or an operation")
	case q.Metric != "" && q.Operation != "":
		return fmt.Errorf("query has both metric %q and operation %q", q.Metric, q.Operation)
	case len(q.Domains) == 0:
		return fmt.Errorf("query has no domains")
	case q.Metric != "" && len(q.Domains) != 1:
		return fmt.Errorf("scalar %q takes one domain, got %d", q.Metric, len(q.Domains))
	}
	for _, d := range q.Domains {
		if !IsDomain(d) {
			return fmt.Errorf("unknown domain %q", d)
		}
	}
	return nil
}

// Answer evaluates q. Scalars are rounded float64 values; aggregates follow
// Aggregate.
func (o *Oracle) Answer(q Query) (any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.IsAggregate() {
		return o.Aggregate(q.Operation, q.Params, q.Domains...)
	}
	return o.Scalar(q.Domains[0], q.Metric, q.Params)
}
