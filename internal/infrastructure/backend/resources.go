package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/campus/docgen/internal/domain/document"
	"go.uber.org/zap"
)

const (
	studentPath    = "/students/%s"
	templatesPath  = "/documents/templates"
	templatePath   = "/documents/templates/%s"
	signaturesPath = "/signatures"
	attendancePath = "/attendance/students/%s/stats"
)

// GetStudent fetches the student record
func (c *Client) GetStudent(ctx context.Context, studentID string) (document.StudentRecord, error) {
	var record document.StudentRecord
	if err := c.getJSON(ctx, fmt.Sprintf(studentPath, url.PathEscape(studentID)), &record); err != nil {
		return nil, err
	}
	return record, nil
}

// templateDTO accepts both id spellings used by the backend
type templateDTO struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	Title   string `json:"title"`
	To      string `json:"to"`
	Body    string `json:"body"`
	Footer  string `json:"footer"`
}

func (t templateDTO) toDomain() document.DocumentTemplate {
	id := t.ID
	if id == "" {
		id = t.MongoID
	}
	return document.DocumentTemplate{ID: id, Title: t.Title, To: t.To, Body: t.Body, Footer: t.Footer}
}

// ListTemplates fetches every document template
func (c *Client) ListTemplates(ctx context.Context) ([]document.DocumentTemplate, error) {
	var dtos []templateDTO
	if err := c.getJSON(ctx, templatesPath, &dtos); err != nil {
		return nil, err
	}
	out := make([]document.DocumentTemplate, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// GetTemplate fetches one template
func (c *Client) GetTemplate(ctx context.Context, templateID string) (document.DocumentTemplate, error) {
	var dto templateDTO
	if err := c.getJSON(ctx, fmt.Sprintf(templatePath, url.PathEscape(templateID)), &dto); err != nil {
		return document.DocumentTemplate{}, err
	}
	return dto.toDomain(), nil
}

type signatureDTO struct {
	ID                string          `json:"id"`
	MongoID           string          `json:"_id"`
	Name              string          `json:"name"`
	SignatureImageURL string          `json:"signatureImageUrl"`
	FileDetails       json.RawMessage `json:"fileDetails"`
	FileType          string          `json:"fileType"`
}

func (s signatureDTO) toDomain() document.SignatureAsset {
	id := s.ID
	if id == "" {
		id = s.MongoID
	}
	return document.SignatureAsset{
		ID:                id,
		Name:              s.Name,
		SignatureImageURL: s.SignatureImageURL,
		FileDetails:       rawText(s.FileDetails),
		FileType:          s.FileType,
	}
}

// rawText returns a JSON string's value, or the compact JSON of anything else
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// ListSignatures fetches every signature asset
func (c *Client) ListSignatures(ctx context.Context) ([]document.SignatureAsset, error) {
	var dtos []signatureDTO
	if err := c.getJSON(ctx, signaturesPath, &dtos); err != nil {
		return nil, err
	}
	out := make([]document.SignatureAsset, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// GetAttendanceStats fetches the attendance summary of a student
func (c *Client) GetAttendanceStats(ctx context.Context, studentID string) ([]document.AttendanceStat, error) {
	var stats []document.AttendanceStat
	if err := c.getJSON(ctx, fmt.Sprintf(attendancePath, url.PathEscape(studentID)), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// FetchBinary downloads ref with the client's credentials. Bodies larger than
// maxBytes are rejected; zero means no limit.
func (c *Client) FetchBinary(ctx context.Context, ref string, maxBytes int64) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", err
	}
	return fetch(c.httpClient, req, maxBytes)
}

// fetch executes req and reads a bounded body
func fetch(hc *http.Client, req *http.Request, maxBytes int64) ([]byte, string, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, "", &APIError{StatusCode: resp.StatusCode}
	}

	var r io.Reader = resp.Body
	if maxBytes > 0 {
		r = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", req.URL.Redacted(), err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%s exceeds %d bytes", req.URL.Redacted(), maxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// FetchPublic downloads rawURL without any credentials
func FetchPublic(ctx context.Context, hc *http.Client, rawURL string, maxBytes int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	return fetch(hc, req, maxBytes)
}

// SendRequest is a generated document handed over for emailing
type SendRequest struct {
	File        []byte
	FileName    string
	FileType    string
	Folder      string
	StudentName string
	StudentID   string
}

// SendDocument uploads the PDF to the backend's send endpoint. The server
// message is returned on success; failures carry the server message when
// one was given.
func (c *Client) SendDocument(ctx context.Context, sr SendRequest) (string, error) {
	if len(sr.File) == 0 {
		return "", fmt.Errorf("document is empty")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", sr.FileName)
	if err != nil {
		return "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(sr.File); err != nil {
		return "", fmt.Errorf("writing file part: %w", err)
	}

	fields := [][2]string{
		{"fileType", firstNonEmpty(sr.FileType, "pdf")},
		{"folder", sr.Folder},
		{"studentName", sr.StudentName},
		{"studentId", sr.StudentID},
		{"isDeleted", "false"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.cfg.SendPath, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", c.cfg.SendPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading send response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	if decodeErr == nil && env.Success != nil && !*env.Success {
		return "", &APIError{StatusCode: resp.StatusCode, Message: env.message()}
	}

	c.logger.Info("document submitted for delivery",
		zap.String("student_id", sr.StudentID),
		zap.String("file_name", sr.FileName),
		zap.Int("size", len(sr.File)),
	)
	return strings.TrimSpace(env.message()), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
