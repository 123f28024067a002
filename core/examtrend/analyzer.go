package examtrend

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultClusters       = 3
	DefaultSeed     int64 = 42

	defaultMaxIter   = 300
	defaultTolerance = 1e-4
)

// Analyzer turns a user's exam records into per-subject study insights.
//
// Records are standardized on (study_hours, grade) and clustered with k-means over the
// whole input before being grouped by subject. The cluster labels travel with the grouped
// records but do not change the insights: a subject's insight only depends on its own
// grades and study hours.
//
// An Analyzer only holds configuration; every call builds its own scaler and k-means
// state so it is safe for concurrent use.
type Analyzer struct {
	clusters int
	seed     int64
	maxIter  int
}

type AnalyzerOption func(*Analyzer)

// WithClusters sets the number of clusters (default 3).
func WithClusters(k int) AnalyzerOption {
	return func(a *Analyzer) {
		if k > 0 {
			a.clusters = k
		}
	}
}

// WithSeed sets the seed of the clustering random source (default 42).
func WithSeed(seed int64) AnalyzerOption {
	return func(a *Analyzer) {
		a.seed = seed
	}
}

func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		clusters: DefaultClusters,
		seed:     DefaultSeed,
		maxIter:  defaultMaxIter,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cluster returns the cluster label of every record, in input order.
// Fewer distinct (study_hours, grade) pairs than clusters lowers the number of clusters.
func (a *Analyzer) Cluster(records []Record) []int {
	points := make([][]float64, len(records))
	for i, rec := range records {
		points[i] = []float64{rec.StudyHours, rec.Grade}
	}
	km := newKMeans(a.clusters, a.seed, a.maxIter, defaultTolerance)
	return km.fit(standardize(points))
}

// Analyze returns one Insight per subject having at least one record graded strictly above
// the subject's average; other subjects are left out. Insights come in the order in which
// their subject first appears in records. No records yield no insights.
func (a *Analyzer) Analyze(records []Record) []Insight {
	insights := make([]Insight, 0)
	if len(records) == 0 {
		return insights
	}

	for _, grp := range groupBySubject(records, a.Cluster(records)) {
		if ins, ok := grp.insight(); ok {
			insights = append(insights, ins)
		}
	}
	return insights
}

type labeledRecord struct {
	Record
	cluster int
}

type subjectGroup struct {
	subject string
	records []labeledRecord
}

// groupBySubject keeps subjects in first-seen order.
func groupBySubject(records []Record, labels []int) []*subjectGroup {
	groups := make([]*subjectGroup, 0)
	index := make(map[string]*subjectGroup)
	for i, rec := range records {
		grp, ok := index[rec.Subject]
		if !ok {
			grp = &subjectGroup{subject: rec.Subject}
			index[rec.Subject] = grp
			groups = append(groups, grp)
		}
		grp.records = append(grp.records, labeledRecord{Record: rec, cluster: labels[i]})
	}
	return groups
}

func (grp *subjectGroup) insight() (Insight, bool) {
	grades := make([]float64, len(grp.records))
	hours := make([]float64, len(grp.records))
	for i, rec := range grp.records {
		grades[i] = rec.Grade
		hours[i] = rec.StudyHours
	}
	avgGrade := stat.Mean(grades, nil)

	// high performers
	var bestHours []float64
	for _, rec := range grp.records {
		if rec.Grade > avgGrade {
			bestHours = append(bestHours, rec.StudyHours)
		}
	}
	if len(bestHours) == 0 {
		return Insight{}, false
	}
	optimal := stat.Mean(bestHours, nil)

	return Insight{
		Subject:           grp.subject,
		AvgGrade:          avgGrade,
		AvgStudyHours:     stat.Mean(hours, nil),
		OptimalStudyHours: optimal,
		Topics:            grp.topics(),
		Recommendation:    fmt.Sprintf("For %s, studying around %.1f hours tends to yield better results", grp.subject, optimal),
	}, true
}

// topics returns the distinct topics in first-seen order.
func (grp *subjectGroup) topics() []string {
	seen := make(map[string]bool)
	topics := make([]string, 0)
	for _, rec := range grp.records {
		if !seen[rec.Topic] {
			seen[rec.Topic] = true
			topics = append(topics, rec.Topic)
		}
	}
	return topics
}
