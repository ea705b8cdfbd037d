package app

import (
	"context"
	"fmt"
	"sync"

	"docqa/internal/backend"
	"docqa/internal/model"
	"docqa/internal/pkg/logger"
	"docqa/internal/pkg/pdfextract"
)

const (
	intakeModule = "intake"

	ChooseFilesLabel   = "Choose files..."
	UploadLabel        = "Upload"
	UploadingLabel     = "Uploading..."
	UploadFailedStatus = "Upload failed."
)

type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

type DocumentUploader interface {
	UploadDocuments(ctx context.Context, files []model.UploadFile) (*backend.UploadResult, error)
}

type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

// IntakeState is everything the upload controls display.
type IntakeState struct {
	Files          []model.UploadFile `json:"-"`
	FileNames      []string           `json:"files"`
	SelectionLabel string             `json:"selection_label"`
	TriggerLabel   string             `json:"trigger_label"`
	TriggerEnabled bool               `json:"trigger_enabled"`
	Uploading      bool               `json:"uploading"`
	Status         string             `json:"status"`
	StatusKind     StatusKind         `json:"status_kind"`
}

// selected is one entry of the selection. seq tells a re-added file apart
// from the copy an upload already sent.
type selected struct {
	seq  uint64
	file model.UploadFile
}

type IntakeService struct {
	uploader DocumentUploader
	catalog  CatalogRefresher
	log      logger.ILogger

	mu        sync.Mutex
	seq       uint64
	files     []selected
	uploading bool
	status    string
	kind      StatusKind
}

func NewIntakeService(uploader DocumentUploader, catalog CatalogRefresher, log logger.ILogger) *IntakeService {
	if log == nil {
		log = logger.Nop()
	}
	return &IntakeService{uploader: uploader, catalog: catalog, log: log}
}

// Select replaces the current selection.
func (s *IntakeService) Select(files []model.UploadFile) {
	annotated := make([]model.UploadFile, 0, len(files))
	for _, f := range files {
		annotated = append(annotated, s.annotate(f))
	}

	s.mu.Lock()
	s.files = make([]selected, 0, len(annotated))
	for _, f := range annotated {
		s.seq++
		s.files = append(s.files, selected{seq: s.seq, file: f})
	}
	s.mu.Unlock()
}

// SelectPaths replaces the selection with files read from disk.
func (s *IntakeService) SelectPaths(paths []string) error {
	files := make([]model.UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := model.FileFromPath(p)
		if err != nil {
			return fmt.Errorf("select %s failed: %w", p, err)
		}
		files = append(files, f)
	}
	s.Select(files)
	return nil
}

// Add appends one file to the selection, replacing an entry with the same
// name.
func (s *IntakeService) Add(file model.UploadFile) {
	file = s.annotate(file)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	for i := range s.files {
		if s.files[i].file.Name == file.Name {
			s.files[i] = selected{seq: s.seq, file: file}
			return
		}
	}
	s.files = append(s.files, selected{seq: s.seq, file: file})
}

// AddPath adds a file from disk to the selection.
func (s *IntakeService) AddPath(path string) error {
	f, err := model.FileFromPath(path)
	if err != nil {
		return fmt.Errorf("add %s failed: %w", path, err)
	}
	s.Add(f)
	s.log.Info(intakeModule, "file added to selection", map[string]interface{}{"file": f.Name})
	return nil
}

func (s *IntakeService) Clear() {
	s.mu.Lock()
	s.files = nil
	s.mu.Unlock()
}

// forget drops the sent files from the selection. A file added or replaced
// while the upload ran stays selected.
func (s *IntakeService) forget(sent []selected) {
	done := make(map[uint64]bool, len(sent))
	for _, f := range sent {
		done[f.seq] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]selected, 0, len(s.files))
	for _, f := range s.files {
		if !done[f.seq] {
			kept = append(kept, f)
		}
	}
	s.files = kept
}

func (s *IntakeService) annotate(f model.UploadFile) model.UploadFile {
	if !pdfextract.IsPDF(f.Name) || f.Open == nil {
		return f
	}
	rc, err := f.Open()
	if err != nil {
		s.log.Debug(intakeModule, "open pdf for page count failed", map[string]interface{}{"file": f.Name, "error": err.Error()})
		return f
	}
	defer rc.Close()

	pages, err := pdfextract.PageCount(rc)
	if err != nil {
		s.log.Debug(intakeModule, "count pdf pages failed", map[string]interface{}{"file": f.Name, "error": err.Error()})
		return f
	}
	f.Pages = pages
	return f
}

// Upload sends the whole selection as one request. The controls are busy
// until the returned channel closes.
func (s *IntakeService) Upload(ctx context.Context) (<-chan struct{}, error) {
	done := make(chan struct{})

	s.mu.Lock()
	if s.uploading {
		s.mu.Unlock()
		close(done)
		return done, ErrUploadInProgress
	}
	if len(s.files) == 0 {
		s.mu.Unlock()
		close(done)
		return done, ErrNoSelection
	}
	files := make([]selected, len(s.files))
	copy(files, s.files)
	s.uploading = true
	s.status = ""
	s.kind = StatusNone
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer s.release()
		s.upload(context.WithoutCancel(ctx), files)
	}()
	return done, nil
}

func (s *IntakeService) release() {
	s.mu.Lock()
	s.uploading = false
	s.mu.Unlock()
}

func (s *IntakeService) upload(ctx context.Context, sel []selected) {
	files := make([]model.UploadFile, 0, len(sel))
	for _, f := range sel {
		files = append(files, f.file)
	}
	result, err := s.uploader.UploadDocuments(ctx, files)
	if err != nil {
		s.log.Warn(intakeModule, "upload failed", map[string]interface{}{
			"files": len(files),
			"error": err.Error(),
		})
		s.setStatus(UploadFailedStatus, StatusError)
		return
	}

	s.log.Info(intakeModule, "upload finished", map[string]interface{}{
		"total":      result.Summary.TotalFiles,
		"success":    result.Summary.Success,
		"duplicates": result.Summary.Duplicates,
		"errors":     result.Summary.Errors,
	})
	for _, r := range result.Results {
		if r.Status != "success" {
			s.log.Warn(intakeModule, "file not ingested", map[string]interface{}{
				"file":    r.Filename,
				"status":  r.Status,
				"message": r.Message,
			})
		}
	}

	s.setStatus(uploadedMessage(result.Summary), StatusSuccess)
	s.forget(sel)

	if s.catalog != nil {
		// A failed refresh is already logged by the catalog.
		_ = s.catalog.Refresh(ctx)
	}
}

func (s *IntakeService) setStatus(text string, kind StatusKind) {
	s.mu.Lock()
	s.status = text
	s.kind = kind
	s.mu.Unlock()
}

func uploadedMessage(sum model.UploadSummary) string {
	msg := fmt.Sprintf("Uploaded %d file(s).", sum.Success)
	if sum.Duplicates > 0 {
		msg += fmt.Sprintf(" %d already indexed.", sum.Duplicates)
	}
	if sum.Errors > 0 {
		msg += fmt.Sprintf(" %d failed.", sum.Errors)
	}
	return msg
}

func (s *IntakeService) State() IntakeState {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]model.UploadFile, 0, len(s.files))
	names := make([]string, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f.file)
		names = append(names, f.file.Name)
	}

	state := IntakeState{
		Files:          files,
		FileNames:      names,
		SelectionLabel: SelectionLabel(len(files)),
		TriggerLabel:   UploadLabel,
		TriggerEnabled: len(files) > 0 && !s.uploading,
		Uploading:      s.uploading,
		Status:         s.status,
		StatusKind:     s.kind,
	}
	if s.uploading {
		state.TriggerLabel = UploadingLabel
	}
	return state
}

func SelectionLabel(n int) string {
	if n == 0 {
		return ChooseFilesLabel
	}
	return fmt.Sprintf("%d file(s) selected", n)
}
