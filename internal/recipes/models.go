package recipes

import (
	"strconv"
	"strings"
	"time"
)

// Status records how far the pipeline has progressed for a recipe.
type Status string

const (
	StatusCreated            Status = "created"
	StatusExtracted          Status = "extracted"
	StatusThumbnailGenerated Status = "thumbnail_generated"
	StatusMarketingGenerated Status = "marketing_generated"
	StatusFailed             Status = "failed"
)

var allStatuses = []Status{
	StatusCreated,
	StatusExtracted,
	StatusThumbnailGenerated,
	StatusMarketingGenerated,
	StatusFailed,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Rating is the user's verdict on a recipe.
type Rating int

const (
	RatingUnknown Rating = iota
	RatingDislike
	RatingLike
	RatingLove
)

var ratingNames = [...]string{"unknown", "dislike", "like", "love"}

func (r Rating) String() string {
	if r.Valid() {
		return ratingNames[r]
	}
	return "rating(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is one of the defined ratings.
func (r Rating) Valid() bool {
	return r >= RatingUnknown && r <= RatingLove
}

// ParseRating accepts either the numeric value ("2") or the name ("like").
func ParseRating(value string) (Rating, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(value); err == nil {
		r := Rating(n)
		return r, r.Valid()
	}
	for i, name := range ratingNames {
		if name == value {
			return Rating(i), true
		}
	}
	return RatingUnknown, false
}

// Record is the info.json document for a recipe.
type Record struct {
	ID             string    `json:"id"`
	OriginalImages []string  `json:"originalImages"`
	Created        time.Time `json:"created"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Thumbnail      string    `json:"thumbnail"`
	Rating         Rating    `json:"rating"`
	Status         Status    `json:"status,omitempty"`
	FailedStage    string    `json:"failedStage,omitempty"`
	LastError      string    `json:"lastError,omitempty"`
	Updated        time.Time `json:"updated,omitzero"`
}

// CurrentStatus returns the persisted status, treating records written
// before status tracking as freshly created.
func (r Record) CurrentStatus() Status {
	if r.Status == "" {
		return StatusCreated
	}
	return r.Status
}

// HasThumbnail reports whether a thumbnail has been recorded.
func (r Record) HasThumbnail() bool {
	return strings.TrimSpace(r.Thumbnail) != ""
}

// Failure describes the stage that stopped a pipeline run.
type Failure struct {
	Stage   string
	Message string
}
