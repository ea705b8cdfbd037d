package model

import (
	"io"
	"os"
)

// DocumentSummary is one entry of the ingested-document catalog.
type DocumentSummary struct {
	ID         int64  `json:"id,omitempty"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"upload_timestamp,omitempty"` // backend-formatted, shown as-is
}

// UploadFile is one selected file waiting for intake.
type UploadFile struct {
	Name  string
	Size  int64
	Pages int // 0 when unknown or not a PDF
	Open  func() (io.ReadCloser, error)
}

// FileFromPath builds an UploadFile that reads from disk on demand.
func FileFromPath(path string) (UploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return UploadFile{}, err
	}
	return UploadFile{
		Name: info.Name(),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

type UploadSummary struct {
	TotalFiles int `json:"total_files"`
	Success    int `json:"success"`
	Errors     int `json:"errors"`
	Duplicates int `json:"duplicates"`
}

type UploadOutcome struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	FileID   int64  `json:"file_id,omitempty"`
	Message  string `json:"message"`
}
