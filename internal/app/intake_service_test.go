package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/backend"
	"docqa/internal/model"
)

func TestSelectionContract(t *testing.T) {
	svc := NewIntakeService(nil, nil, nil)

	state := svc.State()
	assert.Equal(t, ChooseFilesLabel, state.SelectionLabel)
	assert.False(t, state.TriggerEnabled)
	assert.Equal(t, UploadLabel, state.TriggerLabel)

	svc.Select([]model.UploadFile{memFile("a.pdf", "x"), memFile("b.docx", "y")})
	state = svc.State()
	assert.Equal(t, "2 file(s) selected", state.SelectionLabel)
	assert.True(t, state.TriggerEnabled)
	assert.Equal(t, []string{"a.pdf", "b.docx"}, state.FileNames)
	assert.Zero(t, state.Files[0].Pages, "unreadable pdf leaves the page count unknown")

	svc.Select(nil)
	assert.False(t, svc.State().TriggerEnabled)
}

func TestAddReplacesSameName(t *testing.T) {
	svc := NewIntakeService(nil, nil, nil)
	svc.Add(memFile("a.html", "1"))
	svc.Add(memFile("b.html", "2"))
	svc.Add(memFile("a.html", "333"))

	state := svc.State()
	require.Len(t, state.Files, 2)
	assert.Equal(t, int64(3), state.Files[0].Size)
}

func TestSelectPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>hi</p>"), 0o644))

	svc := NewIntakeService(nil, nil, nil)
	require.NoError(t, svc.SelectPaths([]string{path}))
	assert.Equal(t, []string{"notes.html"}, svc.State().FileNames)

	require.NoError(t, svc.AddPath(path))
	assert.Len(t, svc.State().Files, 1)

	assert.Error(t, svc.SelectPaths([]string{filepath.Join(dir, "missing.pdf")}))
	assert.Len(t, svc.State().Files, 1, "a failed selection keeps the previous one")
}

func TestUploadSuccessRefreshesCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File["file"], 2)
		_, _ = w.Write([]byte(`{"summary":{"success":2}}`))
	}))
	defer srv.Close()

	refresher := &countingRefresher{}
	svc := NewIntakeService(backend.NewClientWithHTTP(srv.URL, srv.Client()), refresher, nil)
	svc.Select([]model.UploadFile{memFile("a.pdf", "x"), memFile("b.docx", "y")})

	done, err := svc.Upload(context.Background())
	require.NoError(t, err)
	waitDone(t, done)

	state := svc.State()
	assert.Equal(t, StatusSuccess, state.StatusKind)
	assert.Equal(t, "Uploaded 2 file(s).", state.Status)
	assert.Equal(t, UploadLabel, state.TriggerLabel)
	assert.False(t, state.Uploading)
	assert.Empty(t, state.Files)
	assert.False(t, state.TriggerEnabled)
	assert.Equal(t, 1, refresher.calls())
}

func TestUploadFailureRestoresControls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	refresher := &countingRefresher{}
	svc := NewIntakeService(backend.NewClientWithHTTP(srv.URL, srv.Client()), refresher, nil)
	svc.Select([]model.UploadFile{memFile("a.pdf", "x")})

	done, err := svc.Upload(context.Background())
	require.NoError(t, err)
	waitDone(t, done)

	state := svc.State()
	assert.Equal(t, StatusError, state.StatusKind)
	assert.Equal(t, UploadFailedStatus, state.Status)
	assert.Equal(t, UploadLabel, state.TriggerLabel)
	assert.True(t, state.TriggerEnabled, "selection is kept for a retry")
	assert.Zero(t, refresher.calls())
}

type blockingUploader struct {
	release chan struct{}
}

func (u blockingUploader) UploadDocuments(context.Context, []model.UploadFile) (*backend.UploadResult, error) {
	<-u.release
	return &backend.UploadResult{Summary: model.UploadSummary{Success: 1, Duplicates: 1, Errors: 1}}, nil
}

func TestUploadBusyState(t *testing.T) {
	up := blockingUploader{release: make(chan struct{})}
	svc := NewIntakeService(up, nil, nil)

	_, err := svc.Upload(context.Background())
	require.ErrorIs(t, err, ErrNoSelection)

	svc.Select([]model.UploadFile{memFile("a.pdf", "x")})
	done, err := svc.Upload(context.Background())
	require.NoError(t, err)

	state := svc.State()
	assert.True(t, state.Uploading)
	assert.Equal(t, UploadingLabel, state.TriggerLabel)
	assert.False(t, state.TriggerEnabled)
	assert.Empty(t, state.Status)

	_, err = svc.Upload(context.Background())
	assert.ErrorIs(t, err, ErrUploadInProgress)

	close(up.release)
	waitDone(t, done)
	assert.Equal(t, "Uploaded 1 file(s). 1 already indexed. 1 failed.", svc.State().Status)
}

func TestUploadKeepsFilesAddedMeanwhile(t *testing.T) {
	up := blockingUploader{release: make(chan struct{})}
	svc := NewIntakeService(up, nil, nil)

	svc.Select([]model.UploadFile{memFile("a.pdf", "x"), memFile("c.html", "1")})
	done, err := svc.Upload(context.Background())
	require.NoError(t, err)

	svc.Add(memFile("b.txt", "y"))
	svc.Add(memFile("c.html", "22"))
	assert.Equal(t, []string{"a.pdf", "c.html", "b.txt"}, svc.State().FileNames)

	close(up.release)
	waitDone(t, done)

	state := svc.State()
	assert.Equal(t, []string{"c.html", "b.txt"}, state.FileNames)
	assert.Equal(t, int64(2), state.Files[0].Size)
	assert.True(t, state.TriggerEnabled)
}
