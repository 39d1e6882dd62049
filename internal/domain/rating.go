package domain

import "math"

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingBucket is one bar of the rating histogram.
type RatingBucket struct {
	Rating int
	Count  int
}

// RatingSummary provides the average, count and histogram for a set of reviews.
type RatingSummary struct {
	Average      float64
	Count        int
	Distribution []RatingBucket
}

// ValidateRating returns ErrInvalidRating unless rating is within 1..5.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// Summarize computes the rounded mean and the ascending 1..5 histogram of the given reviews.
// An empty set averages to 0.
func Summarize(reviews []Review) RatingSummary {
	summary := RatingSummary{
		Count:        len(reviews),
		Distribution: make([]RatingBucket, 0, MaxRating),
	}
	counts := make(map[int]int, MaxRating)
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		counts[r.Rating]++
	}
	for rating := MinRating; rating <= MaxRating; rating++ {
		summary.Distribution = append(summary.Distribution, RatingBucket{Rating: rating, Count: counts[rating]})
	}
	if len(reviews) > 0 {
		summary.Average = RoundToOneDecimal(float64(sum) / float64(len(reviews)))
	}
	return summary
}

// RoundToOneDecimal rounds half away from zero at the first decimal place.
func RoundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10.0
}
