package serviceimpl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipstream/domain/models"
	"clipstream/domain/ports"
	"clipstream/domain/repositories"
)

func timeNowPtr() *time.Time {
	now := time.Now()
	return &now
}

// ---- video repository ----

type fakeVideoRepo struct {
	mu     sync.Mutex
	videos map[uuid.UUID]*models.Video
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: map[uuid.UUID]*models.Video{}}
}

func (r *fakeVideoRepo) Create(ctx context.Context, v *models.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	r.videos[v.ID] = &cp
	return nil
}

func (r *fakeVideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVideoRepo) GetBySlug(ctx context.Context, slug string) (*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.videos {
		if v.Slug == slug {
			cp := *v
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// Update and Delete are not part of the repository surface; tests use them
// to reseed and remove records directly.
func (r *fakeVideoRepo) Update(ctx context.Context, v *models.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.videos[v.ID] = &cp
	return nil
}

func (r *fakeVideoRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return models.ErrNotFound
	}
	v.Status = status
	return nil
}

func (r *fakeVideoRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.videos[id]; ok {
		v.Views++
	}
	return nil
}

func (r *fakeVideoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.videos, id)
	return nil
}

func (r *fakeVideoRepo) ListPublished(ctx context.Context, offset, limit int) ([]*models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Video
	for _, v := range r.videos {
		if v.Status == models.VideoStatusPublished {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) CountByStatus(ctx context.Context, status models.VideoStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, v := range r.videos {
		if v.Status == status {
			n++
		}
	}
	return n, nil
}

// ---- job repository ----

// fakeJobRepo mirrors the transition rules of the real ledger, including the
// cross-record video updates, so orchestrator tests exercise the same
// semantics the production implementation enforces.
type fakeJobRepo struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*models.ProcessingJob
	videos   *fakeVideoRepo
	progress map[uuid.UUID][]int // SetProgress history per job
}

func newFakeJobRepo(videos *fakeVideoRepo) *fakeJobRepo {
	return &fakeJobRepo{
		jobs:     map[uuid.UUID]*models.ProcessingJob{},
		videos:   videos,
		progress: map[uuid.UUID][]int{},
	}
}

func (r *fakeJobRepo) Create(ctx context.Context, job *models.ProcessingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	job.CreatedAt = time.Now()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *fakeJobRepo) GetActiveByVideo(ctx context.Context, videoID uuid.UUID) (*models.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.VideoID == videoID && job.IsActive() {
			cp := *job
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeJobRepo) GetStuckProcessing(ctx context.Context, before time.Time) ([]*models.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProcessingJob
	for _, job := range r.jobs {
		if job.Status == models.JobStatusProcessing && job.StartedAt != nil && job.StartedAt.Before(before) {
			cp := *job
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) GetByStatus(ctx context.Context, status models.JobStatus, limit int) ([]*models.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProcessingJob
	for _, job := range r.jobs {
		if job.Status == status {
			cp := *job
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeJobRepo) MarkStarted(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	if job.Status != models.JobStatusQueued {
		return models.ErrInvalidTransition
	}
	now := time.Now()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	return nil
}

func (r *fakeJobRepo) SetProgress(ctx context.Context, id uuid.UUID, percent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	job.Progress = percent
	r.progress[id] = append(r.progress[id], percent)
	return nil
}

func (r *fakeJobRepo) Complete(ctx context.Context, id uuid.UUID, res repositories.CompletionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.ErrNotFound
	}

	r.videos.mu.Lock()
	video, ok := r.videos.videos[job.VideoID]
	if !ok {
		r.videos.mu.Unlock()
		return models.ErrNotFound
	}
	now := time.Now()
	video.Status = models.VideoStatusPublished
	video.MediaPath = res.MediaPath
	video.ThumbnailPath = res.ThumbnailPath
	video.Duration = res.Duration
	if video.PublishedAt == nil {
		video.PublishedAt = &now
	}
	r.videos.mu.Unlock()

	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.Resolution = res.Resolution
	job.CompletedAt = &now
	return nil
}

func (r *fakeJobRepo) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.ErrorMessage = errorMessage
	job.CompletedAt = &now

	r.videos.mu.Lock()
	if video, ok := r.videos.videos[job.VideoID]; ok && video.Status == models.VideoStatusProcessing {
		video.Status = models.VideoStatusDraft
	}
	r.videos.mu.Unlock()
	return nil
}

func (r *fakeJobRepo) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	if job.Status != models.JobStatusFailed {
		return models.ErrInvalidTransition
	}
	job.Status = models.JobStatusQueued
	job.Progress = 0
	job.ErrorMessage = ""
	job.Resolution = ""
	job.StartedAt = nil
	job.CompletedAt = nil

	r.videos.mu.Lock()
	if video, ok := r.videos.videos[job.VideoID]; ok {
		video.Status = models.VideoStatusProcessing
	}
	r.videos.mu.Unlock()
	return nil
}

// ---- blob store ----

type fakeBlobStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	deleted    []string
	failFetch  bool
	failUpload string // substring of path that triggers an upload failure
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (s *fakeBlobStore) put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
}

func (s *fakeBlobStore) UploadFile(file io.Reader, path string, contentType string) (string, error) {
	if s.failUpload != "" && strings.Contains(path, s.failUpload) {
		return "", fmt.Errorf("upload rejected: %s", path)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.put(path, data)
	return s.GetFileURL(path), nil
}

func (s *fakeBlobStore) GetFileContent(path string) (io.ReadCloser, string, error) {
	if s.failFetch {
		return nil, "", fmt.Errorf("object unavailable: %s", path)
	}
	s.mu.Lock()
	data, ok := s.objects[path]
	s.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("no such object: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), "application/octet-stream", nil
}

func (s *fakeBlobStore) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	s.deleted = append(s.deleted, path)
	return nil
}

func (s *fakeBlobStore) GetFileURL(path string) string {
	return "http://cdn.test/" + path
}

func (s *fakeBlobStore) GetProviderName() string { return "fake" }

// ---- prober / transcoder ----

type fakeProber struct {
	inputInfo  *ports.MediaInfo
	outputInfo *ports.MediaInfo
	inputErr   error
	outputErr  error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (*ports.MediaInfo, error) {
	if strings.Contains(path, "output") {
		if p.outputErr != nil {
			return nil, p.outputErr
		}
		return p.outputInfo, nil
	}
	if p.inputErr != nil {
		return nil, p.inputErr
	}
	return p.inputInfo, nil
}

type fakeTranscoder struct {
	transcodeErr error
	thumbErr     error
	progress     []int // encoder percentages to report
}

func (t *fakeTranscoder) Transcode(ctx context.Context, inputPath, outputPath string, onProgress ports.ProgressFunc) error {
	if t.transcodeErr != nil {
		return t.transcodeErr
	}
	for _, p := range t.progress {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return os.WriteFile(outputPath, []byte("encoded"), 0644)
}

func (t *fakeTranscoder) ExtractThumbnail(ctx context.Context, inputPath, outputPath string, atFraction float64) error {
	if t.thumbErr != nil {
		return t.thumbErr
	}
	return os.WriteFile(outputPath, []byte("jpeg"), 0644)
}

func (t *fakeTranscoder) IsAvailable() bool { return true }

// ---- event publisher ----

type fakeEvents struct {
	mu     sync.Mutex
	events []ports.JobEvent
}

func (e *fakeEvents) PublishJobEvent(ctx context.Context, event *ports.JobEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, *event)
	return nil
}

func (e *fakeEvents) statuses() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Status)
	}
	return out
}

// ---- dispatcher ----

type fakeSubmitter struct {
	mu          sync.Mutex
	submissions []uuid.UUID // job IDs in submission order
	err         error
}

func (s *fakeSubmitter) Submit(videoID, jobID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, jobID)
	return nil
}
