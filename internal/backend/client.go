// Package backend is the HTTP boundary to the question-answering service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docqa/internal/model"
)

const uploadField = "file"

type ChatRequest struct {
	SessionID string        `json:"session_id"`
	Question  string        `json:"question"`
	History   []ChatMessage `json:"history"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Answer     string
	References []model.Reference
}

type UploadResult struct {
	Summary model.UploadSummary   `json:"summary"`
	Results []model.UploadOutcome `json:"results"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient builds a client for baseURL. A zero timeout leaves requests
// unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tracer:     otel.Tracer("docqa/backend"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat posts one question. History is always sent as a JSON array.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, span := c.tracer.Start(ctx, "backend.chat", trace.WithAttributes(
		attribute.String("docqa.session_id", req.SessionID),
	))
	defer span.End()

	if req.History == nil {
		req.History = []ChatMessage{}
	}
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fail(span, fmt.Errorf("marshal chat request failed: %w", err))
	}

	raw, err := c.do(ctx, "chat", http.MethodPost, "/chat", "application/json", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fail(span, err)
	}

	resp, err := decodeChat(raw)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("docqa.reference_count", len(resp.References)))
	return resp, nil
}

// decodeChat accepts any well-formed JSON body. A body that is not an object
// is the answer itself.
func decodeChat(raw []byte) (*ChatResponse, error) {
	var body json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return &ChatResponse{Answer: bodyText(body), References: []model.Reference{}}, nil
	}

	var parsed struct {
		Answer              *string           `json:"answer"`
		HighlightedContexts []model.Reference `json:"highlighted_contexts"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	answer := ""
	if parsed.Answer != nil {
		answer = *parsed.Answer
	}
	if strings.TrimSpace(answer) == "" {
		answer = strings.TrimSpace(string(raw))
	}
	refs := parsed.HighlightedContexts
	if refs == nil {
		refs = []model.Reference{}
	}
	return &ChatResponse{Answer: answer, References: refs}, nil
}

// bodyText unquotes a JSON string and keeps any other value as written.
func bodyText(body json.RawMessage) string {
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(body))
}

// UploadDocuments sends every file in one multipart body, each part under
// the "file" field.
func (c *Client) UploadDocuments(ctx context.Context, files []model.UploadFile) (*UploadResult, error) {
	ctx, span := c.tracer.Start(ctx, "backend.upload_documents", trace.WithAttributes(
		attribute.Int("docqa.file_count", len(files)),
	))
	defer span.End()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		if err := writePart(writer, f); err != nil {
			return nil, fail(span, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fail(span, fmt.Errorf("close multipart body failed: %w", err))
	}

	raw, err := c.do(ctx, "upload", http.MethodPost, "/upload-doc", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, fail(span, err)
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fail(span, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	span.SetAttributes(attribute.Int("docqa.upload_success", result.Summary.Success))
	return &result, nil
}

func writePart(writer *multipart.Writer, f model.UploadFile) error {
	if f.Open == nil {
		return fmt.Errorf("upload file %q has no content", f.Name)
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open upload file %q failed: %w", f.Name, err)
	}
	defer src.Close()

	part, err := writer.CreateFormFile(uploadField, f.Name)
	if err != nil {
		return fmt.Errorf("create multipart part failed: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy upload file %q failed: %w", f.Name, err)
	}
	return nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]model.DocumentSummary, error) {
	ctx, span := c.tracer.Start(ctx, "backend.list_documents")
	defer span.End()

	raw, err := c.do(ctx, "list documents", http.MethodGet, "/list-docs", "", nil)
	if err != nil {
		return nil, fail(span, err)
	}

	var docs []model.DocumentSummary
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fail(span, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if docs == nil {
		docs = []model.DocumentSummary{}
	}
	span.SetAttributes(attribute.Int("docqa.document_count", len(docs)))
	return docs, nil
}

func (c *Client) DeleteDocument(ctx context.Context, fileID int64) error {
	ctx, span := c.tracer.Start(ctx, "backend.delete_document", trace.WithAttributes(
		attribute.Int64("docqa.file_id", fileID),
	))
	defer span.End()

	bodyBytes, err := json.Marshal(map[string]int64{"file_id": fileID})
	if err != nil {
		return fail(span, fmt.Errorf("marshal delete request failed: %w", err))
	}
	if _, err := c.do(ctx, "delete document", http.MethodDelete, "/delete-doc", "application/json", bytes.NewReader(bodyBytes)); err != nil {
		return fail(span, err)
	}
	return nil
}

// Ping checks that the backend answers at all. Any HTTP response counts,
// whatever its status.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, "/", "", nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request failed: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response failed: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
