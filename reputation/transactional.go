package reputation

import "math"

// RatingData is the raw counterparty-rating snapshot the transactional
// layer is extracted from.
type RatingData struct {
	WorkerID             int64   `json:"worker_id,omitempty"`
	AvgRatingReceived    float64 `json:"avg_rating_received"`
	TotalRatingsReceived int     `json:"total_ratings_received"`
	AvgRatingGiven       float64 `json:"avg_rating_given"`
	TotalRatingsGiven    int     `json:"total_ratings_given"`
}

// Transactional is the counterparty-rating layer for one worker.
type Transactional struct {
	Worker               string  `json:"worker"`
	WorkerID             int64   `json:"worker_id,omitempty"`
	AvgRatingReceived    float64 `json:"avg_rating_received"`
	TotalRatingsReceived int     `json:"total_ratings_received"`
	AvgRatingGiven       float64 `json:"avg_rating_given"`
	TotalRatingsGiven    int     `json:"total_ratings_given"`
}

// ExtractTransactional normalizes a rating snapshot into the transactional
// layer. A nil snapshot yields the neutral layer.
func ExtractTransactional(worker string, data *RatingData) Transactional {
	rep := Transactional{Worker: worker}
	if data == nil {
		return rep
	}
	rep.WorkerID = data.WorkerID
	rep.AvgRatingReceived = data.AvgRatingReceived
	rep.TotalRatingsReceived = data.TotalRatingsReceived
	rep.AvgRatingGiven = data.AvgRatingGiven
	rep.TotalRatingsGiven = data.TotalRatingsGiven
	return rep
}

// Score is the average rating received, neutral 50 when unrated.
func (t Transactional) Score() float64 {
	if t.TotalRatingsReceived == 0 {
		return 50.0
	}
	return clamp100(t.AvgRatingReceived)
}

// Confidence grows logarithmically with ratings received; zero when unrated.
func (t Transactional) Confidence() float64 {
	if t.TotalRatingsReceived == 0 {
		return 0
	}
	return math.Min(1, 0.3+0.3*math.Log(float64(t.TotalRatingsReceived)+1)/math.Log(20))
}
