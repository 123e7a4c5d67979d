package models

import (
	"net/url"
	"strconv"

	"github.com/yukikurage/issue-tracker-ui/internal/constants"
)

// TaskFilter is the list view's filter state. Categorical fields hold
// constants.FilterAll when unconstrained.
type TaskFilter struct {
	Skip            int
	Limit           int
	CreatorName     string
	AssignerName    string
	SubjectContains string
	Criticality     string
	Status          string
	ThreadID        string
}

// DefaultTaskFilter is the state the list view starts in and resets to.
func DefaultTaskFilter() TaskFilter {
	return TaskFilter{
		Skip:         0,
		Limit:        constants.DefaultPageSize,
		CreatorName:  constants.FilterAll,
		AssignerName: constants.FilterAll,
		Criticality:  constants.FilterAll,
		Status:       constants.FilterAll,
	}
}

// Query encodes the filter as backend query parameters. "All" and empty
// values impose no constraint and are left out.
func (f TaskFilter) Query() url.Values {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(f.Skip))
	q.Set("limit", strconv.Itoa(f.Limit))
	setConstraint(q, "creator_name", f.CreatorName)
	setConstraint(q, "assigner_name", f.AssignerName)
	setConstraint(q, "subject_contains", f.SubjectContains)
	setConstraint(q, "criticality", f.Criticality)
	setConstraint(q, "status", f.Status)
	setConstraint(q, "thread_id", f.ThreadID)
	return q
}

func setConstraint(q url.Values, key, value string) {
	if value == "" || value == constants.FilterAll {
		return
	}
	q.Set(key, value)
}
