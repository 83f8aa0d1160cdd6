package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"resumerank-engine/internal/domain"
	"resumerank-engine/internal/extract"
	"resumerank-engine/internal/metrics"
	"resumerank-engine/internal/pipeline"
	"resumerank-engine/internal/rank"
)

const defaultMaxUploadBytes = 20 << 20

// Skip reasons reported for uploaded files that were not ranked.
const (
	SkipUnsupported = "unsupported"
	SkipUnreadable  = "unreadable"
	SkipEmpty       = "empty"
)

type RankHandler struct {
	Pipeline       *pipeline.Service
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

type RankRequest struct {
	Documents []domain.Document `json:"documents"`
	Weights   map[string]any    `json:"weights,omitempty"`
}

type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Message  string `json:"message,omitempty"`
}

type RankResponse struct {
	RunID   string         `json:"run_id,omitempty"`
	Ranking domain.Ranking `json:"ranking"`
	Skipped []SkippedFile  `json:"skipped,omitempty"`
}

func (h RankHandler) maxBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

// Rank scores a JSON batch of already extracted documents.
func (h RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes())

	var req RankRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	for i := range req.Documents {
		if strings.TrimSpace(req.Documents[i].Name) == "" {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "every document needs a name")
			return
		}
	}

	h.run(w, r, metrics.SourceRank, req.Documents, req.Weights, nil)
}

// Upload extracts text from multipart "files" and ranks them. Weight
// overrides may be sent as form fields named after the signals. Files that
// cannot be read are skipped and listed in the response.
func (h RankHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes())
	if err := r.ParseMultipartForm(h.maxBytes()); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds size limit")
			return
		}
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", `no files in form field "files"`)
		return
	}

	var docs []domain.Document
	var skipped []SkippedFile
	for _, fh := range files {
		doc, skip := h.readUpload(fh)
		if skip != nil {
			h.Metrics.IncSkipped(skip.Reason)
			skipped = append(skipped, *skip)
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		WriteErrorDetails(w, r, http.StatusUnprocessableEntity, "no_documents",
			"none of the uploaded files contained readable text", skipped)
		return
	}

	overrides := map[string]any{}
	for _, key := range []string{
		rank.SignalPartial, rank.SignalRelative, rank.SignalPenalty, rank.SignalConsistency, rank.SignalDuplicate,
	} {
		if v := r.MultipartForm.Value[key]; len(v) > 0 {
			overrides[key] = v[0]
		}
	}

	h.run(w, r, metrics.SourceUpload, docs, overrides, skipped)
}

func (h RankHandler) readUpload(fh *multipart.FileHeader) (domain.Document, *SkippedFile) {
	name := fh.Filename
	if !extract.Supported(name) {
		return domain.Document{}, &SkippedFile{Filename: name, Reason: SkipUnsupported, Message: "only .txt, .md and .html files are read"}
	}

	f, err := fh.Open()
	if err != nil {
		return domain.Document{}, &SkippedFile{Filename: name, Reason: SkipUnreadable, Message: err.Error()}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Document{}, &SkippedFile{Filename: name, Reason: SkipUnreadable, Message: err.Error()}
	}

	text, err := extract.FromBytes(name, data)
	switch {
	case errors.Is(err, extract.ErrEmptyText):
		return domain.Document{}, &SkippedFile{Filename: name, Reason: SkipEmpty, Message: "no text found"}
	case err != nil:
		return domain.Document{}, &SkippedFile{Filename: name, Reason: SkipUnreadable, Message: err.Error()}
	}
	return domain.Document{Name: name, Text: text}, nil
}

func (h RankHandler) run(w http.ResponseWriter, r *http.Request, source string, docs []domain.Document, overrides map[string]any, skipped []SkippedFile) {
	res, err := h.Pipeline.Rank(r.Context(), RequestIDFrom(r.Context()), source, docs, overrides)
	if errors.Is(err, rank.ErrEmptyBatch) {
		WriteErrorDetails(w, r, http.StatusUnprocessableEntity, "empty_batch", err.Error(), skipped)
		return
	}
	if errors.Is(err, rank.ErrDuplicateName) {
		WriteErrorDetails(w, r, http.StatusBadRequest, "duplicate_name", err.Error(), skipped)
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "rank_failed", err.Error())
		return
	}
	writeJSON(w, RankResponse{RunID: res.Run.ID, Ranking: res.Ranking, Skipped: skipped})
}
