package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, title, video_path, slides_dir, manifest_path, status, work_dir, timing_path, target_timing_path, mixed_audio_path, final_file, source_duration, segment_count, truncated_count, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, needs_review, review_reason"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		title            sql.NullString
		videoPath        string
		slidesDir        string
		manifestPath     string
		statusStr        string
		workDir          sql.NullString
		timingPath       sql.NullString
		targetTimingPath sql.NullString
		mixedAudioPath   sql.NullString
		finalFile        sql.NullString
		sourceDuration   sql.NullFloat64
		segmentCount     sql.NullInt64
		truncatedCount   sql.NullInt64
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&videoPath,
		&slidesDir,
		&manifestPath,
		&statusStr,
		&workDir,
		&timingPath,
		&targetTimingPath,
		&mixedAudioPath,
		&finalFile,
		&sourceDuration,
		&segmentCount,
		&truncatedCount,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		Title:            title.String,
		VideoPath:        videoPath,
		SlidesDir:        slidesDir,
		ManifestPath:     manifestPath,
		Status:           Status(statusStr),
		WorkDir:          workDir.String,
		TimingPath:       timingPath.String,
		TargetTimingPath: targetTimingPath.String,
		MixedAudioPath:   mixedAudioPath.String,
		FinalFile:        finalFile.String,
		SourceDuration:   sourceDuration.Float64,
		SegmentCount:     int(segmentCount.Int64),
		TruncatedCount:   int(truncatedCount.Int64),
		ErrorMessage:     errorMessage.String,
		ProgressStage:    progressStage.String,
		ProgressPercent:  progressPercent.Float64,
		ProgressMessage:  progressMessage.String,
		ReviewReason:     reviewReason.String,
	}
	if needsReview.Valid {
		job.NeedsReview = needsReview.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
