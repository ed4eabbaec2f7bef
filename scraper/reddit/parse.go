package reddit

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
)

// reddit thing kinds we care about.
const (
	kindComment = "t1"
	kindLink    = "t3"
	kindMore    = "more"
)

type listingEnvelope struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
		After    string  `json:"after"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type linkData struct {
	Id          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	CreatedUtc  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

type commentData struct {
	Id         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	Permalink  string  `json:"permalink"`
	CreatedUtc float64 `json:"created_utc"`
	// Replies is a nested listing envelope, or the empty string when the
	// comment is a leaf. RawMessage defers that quirk until parse time.
	Replies json.RawMessage `json:"replies"`
}

type moreData struct {
	Children []string `json:"children"`
}

// morechildren responses wrap the things one level deeper.
type moreChildrenEnvelope struct {
	Json struct {
		Data struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

func fromCreatedUtc(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// ParseListing decodes a subreddit listing response into submissions,
// skipping any non-link children.
func ParseListing(r io.Reader) ([]Submission, error) {
	var envelope listingEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, "fail to decode listing response")
	}

	submissions := []Submission{}
	for _, child := range envelope.Data.Children {
		if child.Kind != kindLink {
			continue
		}
		var data linkData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			return nil, errors.Wrap(err, "fail to decode listing child")
		}
		submissions = append(submissions, submissionFromLink(data))
	}
	return submissions, nil
}

// ParseCommentTree decodes a /comments/{id} response: a two-element array of
// listings, the first holding the submission, the second the comment forest.
// Nested replies are flattened; unexpanded "more" stubs are collected by id.
func ParseCommentTree(r io.Reader) (*Thread, error) {
	var listings []listingEnvelope
	if err := json.NewDecoder(r).Decode(&listings); err != nil {
		return nil, errors.Wrap(err, "fail to decode comment tree response")
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return nil, errors.New("comment tree response missing submission listing")
	}

	var link linkData
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &link); err != nil {
		return nil, errors.Wrap(err, "fail to decode submission")
	}

	thread := &Thread{Submission: submissionFromLink(link)}
	if err := flattenComments(listings[1].Data.Children, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// ParseMoreChildren decodes an /api/morechildren response. The returned
// things are flat, but may still contain further "more" stubs.
func ParseMoreChildren(r io.Reader) ([]Comment, []string, error) {
	var envelope moreChildrenEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, nil, errors.Wrap(err, "fail to decode morechildren response")
	}

	thread := &Thread{}
	if err := flattenComments(envelope.Json.Data.Things, thread); err != nil {
		return nil, nil, err
	}
	return thread.Comments, thread.UnexpandedIds, nil
}

func flattenComments(children []thing, thread *Thread) error {
	for _, child := range children {
		switch child.Kind {
		case kindComment:
			var data commentData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return errors.Wrap(err, "fail to decode comment")
			}
			comment := Comment{
				Id:         data.Id,
				Author:     data.Author,
				Body:       data.Body,
				Score:      data.Score,
				Permalink:  data.Permalink,
				CreatedUtc: fromCreatedUtc(data.CreatedUtc),
			}

			// Recurse into replies before appending, so ReplyCount reflects
			// the direct children we actually saw.
			var replies listingEnvelope
			if len(data.Replies) > 0 && data.Replies[0] == '{' {
				if err := json.Unmarshal(data.Replies, &replies); err != nil {
					return errors.Wrap(err, "fail to decode comment replies")
				}
			}
			comment.ReplyCount = countDirectComments(replies.Data.Children)
			thread.Comments = append(thread.Comments, comment)
			if err := flattenComments(replies.Data.Children, thread); err != nil {
				return err
			}
		case kindMore:
			var data moreData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return errors.Wrap(err, "fail to decode more stub")
			}
			thread.UnexpandedIds = append(thread.UnexpandedIds, data.Children...)
		}
	}
	return nil
}

func countDirectComments(children []thing) int {
	count := 0
	for _, child := range children {
		if child.Kind == kindComment {
			count++
		}
	}
	return count
}

func submissionFromLink(data linkData) Submission {
	return Submission{
		Id:          data.Id,
		Title:       data.Title,
		SelfText:    data.SelfText,
		Author:      data.Author,
		Subreddit:   data.Subreddit,
		Score:       data.Score,
		NumComments: data.NumComments,
		Permalink:   "https://www.reddit.com" + data.Permalink,
		CreatedUtc:  fromCreatedUtc(data.CreatedUtc),
		Stickied:    data.Stickied,
	}
}
