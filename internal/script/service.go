package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/caption-studio/backend/internal/captions"
	"github.com/caption-studio/backend/internal/completion"
	"github.com/caption-studio/backend/internal/db"
	"github.com/caption-studio/backend/internal/db/models"
	"github.com/caption-studio/backend/internal/job"
	"github.com/caption-studio/backend/internal/video"
)

// settingDefaultModel is the settings key holding the model used when a
// request does not name one.
const settingDefaultModel = "default_model"

// CaptionFetcher pulls auto-generated captions for a video. Implemented by
// captions.Fetcher.
type CaptionFetcher interface {
	Probe(ctx context.Context, videoID string) (*captions.VideoInfo, error)
	Fetch(ctx context.Context, videoID string) (string, error)
}

// Service runs the three pipeline stages: prepare pulls and cleans the
// auto-generated captions, format repairs punctuation through the completion
// model, metadata generates a title and description from the repaired script.
type Service struct {
	db        *db.Database
	fetcher   CaptionFetcher
	completer completion.Completer
}

func NewService(database *db.Database, fetcher CaptionFetcher, completer completion.Completer) *Service {
	return &Service{db: database, fetcher: fetcher, completer: completer}
}

// Register wires the pipeline stages into the job queue.
func (s *Service) Register(queue *job.JobQueue) {
	queue.RegisterHandler(job.JobPrepare, s.handlePrepare)
	queue.RegisterHandler(job.JobFormat, s.handleFormat)
	queue.RegisterHandler(job.JobMetadata, s.handleMetadata)
}

// Prepare fetches the captions for a watch URL or bare video ID and stores
// the cleaned transcript. Re-preparing a video replaces its transcript and
// clears earlier formatting results.
func (s *Service) Prepare(ctx context.Context, urlOrID string) (*models.Script, error) {
	videoID := video.ExtractID(urlOrID)

	script := &models.Script{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		SourceURL: video.WatchURL(videoID),
	}

	// The probe fills in display metadata and lets us fail before the
	// subtitle download when the video has no auto-generated captions.
	// Probe failures are not fatal; the fetch gives the real answer.
	info, err := s.fetcher.Probe(ctx, videoID)
	if err != nil {
		log.Printf("[script] probe failed for %s: %v", videoID, err)
	} else {
		script.Title = info.Title
		script.Channel = info.Channel
		script.Duration = info.Duration
		if !info.HasAutoSubs {
			return nil, fmt.Errorf("no auto-generated English captions for video %s", videoID)
		}
	}

	raw, err := s.fetcher.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	transcript := captions.Flatten(captions.Filter(raw))
	if transcript == "" {
		return nil, fmt.Errorf("captions for video %s contained no text", videoID)
	}
	script.Transcript = transcript

	if err := s.db.UpsertScript(script); err != nil {
		return nil, fmt.Errorf("save script: %w", err)
	}

	log.Printf("[script] prepared %s (%d chars)", videoID, len(transcript))
	return s.db.GetScript(videoID)
}

// Format sends the stored transcript through the completion model for
// punctuation and capitalization repair. An empty model name selects the
// configured default.
func (s *Service) Format(ctx context.Context, videoID, modelName string) (*models.Script, error) {
	script, err := s.db.GetScript(videoID)
	if err != nil {
		return nil, fmt.Errorf("no prepared script for video %s", videoID)
	}

	model, err := s.selectModel(modelName)
	if err != nil {
		return nil, err
	}

	formatted, err := s.completer.Complete(ctx, model, buildPrompt(formatPrompt, script.Transcript))
	if err != nil {
		return nil, err
	}

	if err := s.db.UpdateScriptFormatted(videoID, formatted, model.Name); err != nil {
		return nil, fmt.Errorf("save formatted script: %w", err)
	}

	log.Printf("[script] formatted %s with %s (%d chars)", videoID, model.Name, len(formatted))
	return s.db.GetScript(videoID)
}

// Metadata generates a title and description from the formatted script. The
// script must have been formatted first; the raw transcript is not a
// substitute.
func (s *Service) Metadata(ctx context.Context, videoID, modelName string) (*models.Script, error) {
	script, err := s.db.GetScript(videoID)
	if err != nil {
		return nil, fmt.Errorf("no prepared script for video %s", videoID)
	}
	if script.Formatted == "" {
		return nil, fmt.Errorf("script for video %s has not been formatted yet", videoID)
	}

	model, err := s.selectModel(modelName)
	if err != nil {
		return nil, err
	}

	metadata, err := s.completer.Complete(ctx, model, buildPrompt(metadataPrompt, script.Formatted))
	if err != nil {
		return nil, err
	}

	if err := s.db.UpdateScriptMetadata(videoID, metadata, model.Name); err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	log.Printf("[script] generated metadata for %s with %s", videoID, model.Name)
	return s.db.GetScript(videoID)
}

func (s *Service) selectModel(name string) (completion.ModelSelection, error) {
	if name == "" {
		name = s.db.GetSetting(settingDefaultModel, completion.DefaultModel)
	}
	return completion.Lookup(name)
}

func (s *Service) handlePrepare(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.PrepareParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("parse params: %w", err)
	}

	start := time.Now()
	updateProgress(0.1)

	script, err := s.Prepare(ctx, params.URL)
	if err != nil {
		return err
	}
	updateProgress(0.9)

	if result, err := json.Marshal(job.PrepareResult{
		VideoID:    script.VideoID,
		Title:      script.Title,
		Transcript: len(script.Transcript),
		Duration:   time.Since(start).Seconds(),
	}); err == nil {
		j.Result = result
	}
	return nil
}

func (s *Service) handleFormat(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.FormatParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("parse params: %w", err)
	}

	start := time.Now()
	updateProgress(0.1)

	script, err := s.Format(ctx, j.VideoID, params.Model)
	if err != nil {
		return err
	}
	updateProgress(0.9)

	if result, err := json.Marshal(job.FormatResult{
		VideoID:   script.VideoID,
		Model:     script.Model,
		Formatted: len(script.Formatted),
		Duration:  time.Since(start).Seconds(),
	}); err == nil {
		j.Result = result
	}
	return nil
}

func (s *Service) handleMetadata(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.MetadataParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("parse params: %w", err)
	}

	start := time.Now()
	updateProgress(0.1)

	script, err := s.Metadata(ctx, j.VideoID, params.Model)
	if err != nil {
		return err
	}
	updateProgress(0.9)

	if result, err := json.Marshal(job.MetadataResult{
		VideoID:  script.VideoID,
		Model:    script.Model,
		Duration: time.Since(start).Seconds(),
	}); err == nil {
		j.Result = result
	}
	return nil
}
