package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

type Feedback struct {
	ID        uint      `json:"id"`
	EventID   uint      `json:"event_id"`
	UserHash  string    `json:"-"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedbackSummary struct {
	EventID      uint        `json:"event_id"`
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution"`
	Feedback     []Feedback  `json:"feedback"`
}

// FeedbackUserHash anonymises a participant id with a server side secret.
func FeedbackUserHash(participantID uint, secret string) string {
	sum := sha256.Sum256([]byte(strconv.FormatUint(uint64(participantID), 10) + secret))
	return hex.EncodeToString(sum[:])
}

func SummarizeFeedback(eventID uint, feedback []Feedback) FeedbackSummary {
	summary := FeedbackSummary{
		EventID:      eventID,
		Count:        len(feedback),
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Feedback:     feedback,
	}
	if len(feedback) == 0 {
		return summary
	}

	total := 0
	for _, f := range feedback {
		total += f.Rating
		summary.Distribution[f.Rating]++
	}
	summary.Average = float64(total) / float64(len(feedback))

	return summary
}
