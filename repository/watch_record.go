package repository

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"strings"
	"video-tracker/dto"
	"video-tracker/entities"
)

var tripleColumns = []clause.Column{{Name: "user_id"}, {Name: "video_id"}, {Name: "session_id"}}

// UpsertWatchRecord inserts the record or, when the triple already exists,
// overwrites it only if the stored percent does not exceed the new one or the
// status differs. The check and the write are one statement, so concurrent
// samples for the same triple cannot regress progress. An existing enrolment
// date is never replaced. It reports whether a row was written.
func (r *repo) UpsertWatchRecord(ctx context.Context, record *entities.WatchRecord) (bool, error) {
	assignments := clause.AssignmentColumns([]string{
		"session_name", "percent", "current_duration", "full_duration", "status", "last_watched",
	})
	assignments = append(assignments, clause.Assignment{
		Column: clause.Column{Name: "enrolment_date"},
		Value:  gorm.Expr("COALESCE(video_watch_progress.enrolment_date, excluded.enrolment_date)"),
	})

	res := r.GetDB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   tripleColumns,
			DoUpdates: assignments,
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("video_watch_progress.percent <= excluded.percent OR video_watch_progress.status <> excluded.status"),
			}},
		}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (r *repo) GetWatchRecord(ctx context.Context, userID uint64, videoID, sessionID string) (*entities.WatchRecord, error) {
	var record entities.WatchRecord
	err := r.GetDB().WithContext(ctx).
		Where("user_id = ? AND video_id = ? AND session_id = ?", userID, videoID, sessionID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

func (r *repo) GetWatchRecordByID(ctx context.Context, id uint64) (*entities.ReportRow, error) {
	var rows []*entities.ReportRow
	err := r.reportQuery(ctx, dto.ReportFilter{}).Where("vp.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return rows[0], nil
}

// UpdateWatchRecord locks the row, lets mutate change it and saves the result.
func (r *repo) UpdateWatchRecord(ctx context.Context, id uint64, mutate func(record *entities.WatchRecord) error) (*entities.WatchRecord, error) {
	var record entities.WatchRecord
	err := r.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error
		if err != nil {
			return err
		}
		if err := mutate(&record); err != nil {
			return err
		}
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *repo) DeleteWatchRecord(ctx context.Context, id uint64) error {
	res := r.GetDB().WithContext(ctx).Delete(&entities.WatchRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// QueryWatchRecords returns matching rows, newest last_watched first. A limit
// of zero or less returns every match.
func (r *repo) QueryWatchRecords(ctx context.Context, filter dto.ReportFilter, limit int) ([]*entities.ReportRow, error) {
	q := r.reportQuery(ctx, filter)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []*entities.ReportRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// StreamWatchRecords walks every matching row through a cursor in the same
// order as QueryWatchRecords.
func (r *repo) StreamWatchRecords(ctx context.Context, filter dto.ReportFilter, fn func(row *entities.ReportRow) error) error {
	rows, err := r.reportQuery(ctx, filter).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row entities.ReportRow
		if err := r.GetDB().ScanRows(rows, &row); err != nil {
			return err
		}
		if err := fn(&row); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (r *repo) CountWatchRecords(ctx context.Context, filter dto.ReportFilter) (int64, error) {
	var count int64
	err := r.filteredQuery(ctx, filter).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) LatestWatchRecords(ctx context.Context, limit int) ([]entities.WatchRecord, error) {
	var records []entities.WatchRecord
	err := r.GetDB().WithContext(ctx).Order("id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) HasWatchRecordTable(ctx context.Context) bool {
	return r.GetDB().WithContext(ctx).Migrator().HasTable(&entities.WatchRecord{})
}

func (r *repo) reportQuery(ctx context.Context, filter dto.ReportFilter) *gorm.DB {
	return r.filteredQuery(ctx, filter).
		Select("vp.*, COALESCE(u.user_login, '') AS user_login, COALESCE(u.user_email, '') AS user_email").
		Order("vp.last_watched DESC").
		Order("vp.id DESC")
}

func (r *repo) filteredQuery(ctx context.Context, filter dto.ReportFilter) *gorm.DB {
	q := r.GetDB().WithContext(ctx).
		Table("video_watch_progress AS vp").
		Joins("LEFT JOIN users u ON vp.user_id = u.id")

	if filter.UserLike != "" {
		like := "%" + strings.ToLower(filter.UserLike) + "%"
		q = q.Where("(LOWER(u.user_login) LIKE ? OR LOWER(u.user_email) LIKE ?)", like, like)
	}
	if filter.SessionNameLike != "" {
		q = q.Where("LOWER(vp.session_name) LIKE ?", "%"+strings.ToLower(filter.SessionNameLike)+"%")
	}
	if filter.Status != nil {
		q = q.Where("vp.status = ?", *filter.Status)
	}

	return q
}
