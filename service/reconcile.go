package service

import (
	"time"
	"video-tracker/constant"
	"video-tracker/entities"
)

// Sample is a validated progress observation for one (user, video, session).
type Sample struct {
	UserID          uint64
	VideoID         string
	SessionID       string
	SessionName     string
	Percent         int
	CurrentDuration string
	FullDuration    string
	Source          constant.Source
}

// Decision is the outcome of reconciling a sample against the stored record.
type Decision struct {
	Record *entities.WatchRecord
	Insert bool
	Write  bool
}

func (d Decision) Stale() bool {
	return !d.Write
}

func ClampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// CalculateStatus is the only place a watch status is produced. An enrolment
// date older than the overdue window wins over any percent.
func CalculateStatus(percent int, enrolment *time.Time, now time.Time) constant.WatchStatus {
	if enrolment != nil && now.Sub(*enrolment) > constant.OverdueAfter {
		return constant.WatchStatusOverdue
	}

	switch percent = ClampPercent(percent); {
	case percent == 0:
		return constant.WatchStatusNotStarted
	case percent < 100:
		return constant.WatchStatusInProgress
	default:
		return constant.WatchStatusCompleted
	}
}

// Reconcile folds a sample into the existing record. enrolment is only used
// when the existing record has none yet. When the sample lowers percent and
// leaves the status unchanged the decision is stale and Record is the
// untouched existing record.
func Reconcile(existing *entities.WatchRecord, sample Sample, enrolment *time.Time, now time.Time) Decision {
	percent := ClampPercent(sample.Percent)
	if existing != nil && existing.EnrolmentDate != nil {
		enrolment = existing.EnrolmentDate
	}
	status := CalculateStatus(percent, enrolment, now)

	if existing == nil {
		return Decision{
			Record: &entities.WatchRecord{
				UserID:          sample.UserID,
				VideoID:         sample.VideoID,
				SessionID:       sample.SessionID,
				SessionName:     sample.SessionName,
				Percent:         percent,
				CurrentDuration: durationOrDefault(sample.CurrentDuration),
				FullDuration:    durationOrDefault(sample.FullDuration),
				AssessmentTaken: false,
				EnrolmentDate:   enrolment,
				Status:          status,
				LastWatched:     now,
				CreatedAt:       now,
			},
			Insert: true,
			Write:  true,
		}
	}

	if percent < existing.Percent && status == existing.Status {
		return Decision{Record: existing}
	}

	next := *existing
	next.SessionName = sample.SessionName
	next.Percent = percent
	next.CurrentDuration = durationOrDefault(sample.CurrentDuration)
	next.FullDuration = durationOrDefault(sample.FullDuration)
	next.EnrolmentDate = enrolment
	next.Status = status
	next.LastWatched = now

	return Decision{Record: &next, Write: true}
}

func durationOrDefault(d string) string {
	if d == "" {
		return constant.DefaultDuration
	}
	return d
}
