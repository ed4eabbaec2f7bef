package reddit

import (
	"time"
)

// Submission is a reddit link post ("t3" thing) as returned by listing and
// comment-tree endpoints.
type Submission struct {
	Id          string
	Title       string
	SelfText    string
	Author      string
	Subreddit   string
	Score       int
	NumComments int
	Permalink   string
	CreatedUtc  time.Time
	Stickied    bool
}

// Comment is a single reddit comment ("t1" thing), flattened out of the
// nested reply tree.
type Comment struct {
	Id         string
	Author     string
	Body       string
	Score      int
	ReplyCount int
	Permalink  string
	CreatedUtc time.Time
}

// Thread is a submission together with its (possibly partially expanded)
// comment tree.
type Thread struct {
	Submission Submission
	Comments   []Comment
	// Ids of "more children" stubs that were not expanded because the
	// expansion budget ran out.
	UnexpandedIds []string
}
