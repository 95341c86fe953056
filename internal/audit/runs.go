package audit

import (
	"sort"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// RunGroup is the set of stored records written by one pipeline run.
type RunGroup struct {
	ID       string
	Started  time.Time // earliest scraped_at in the run
	Jobs     []model.StoredJob
	Problems int // blocked or failed records
}

// GroupRuns buckets jobs by run id, newest run first. Record order inside a
// run is preserved.
func GroupRuns(jobs []model.StoredJob) []RunGroup {
	index := map[string]int{}
	var groups []RunGroup
	for _, j := range jobs {
		i, ok := index[j.RunID]
		if !ok {
			i = len(groups)
			index[j.RunID] = i
			groups = append(groups, RunGroup{ID: j.RunID, Started: j.ScrapedAt})
		}
		g := &groups[i]
		g.Jobs = append(g.Jobs, j)
		if j.ScrapedAt.Before(g.Started) {
			g.Started = j.ScrapedAt
		}
		if isProblem(j) {
			g.Problems++
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Started.After(groups[b].Started)
	})
	return groups
}

// Partition splits jobs into the records with usable content and the
// records that need a manual retry.
func Partition(jobs []model.StoredJob) (scraped, problems []model.StoredJob) {
	for _, j := range jobs {
		if isProblem(j) {
			problems = append(problems, j)
		} else {
			scraped = append(scraped, j)
		}
	}
	return scraped, problems
}

func isProblem(j model.StoredJob) bool {
	return j.Status == model.StatusBlocked || j.Status == model.StatusFailedAfterRetries
}
